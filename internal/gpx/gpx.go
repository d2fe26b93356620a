package gpx

import (
	"encoding/xml"
	"time"
)

// Point is one recorded track position.
type Point struct {
	Lat      float64
	Lng      float64
	Time     time.Time
	SpeedKmh *float64
}

type document struct {
	XMLName xml.Name `xml:"gpx"`
	Version string   `xml:"version,attr"`
	Creator string   `xml:"creator,attr"`
	Xmlns   string   `xml:"xmlns,attr"`
	Trk     track    `xml:"trk"`
}

type track struct {
	Name    string  `xml:"name"`
	Segment segment `xml:"trkseg"`
}

type segment struct {
	Points []trackPoint `xml:"trkpt"`
}

type trackPoint struct {
	Lat        float64     `xml:"lat,attr"`
	Lon        float64     `xml:"lon,attr"`
	Time       string      `xml:"time"`
	Extensions *extensions `xml:"extensions,omitempty"`
}

type extensions struct {
	SpeedKmh float64 `xml:"speed"`
}

// Encode renders a GPX 1.1 document with a single track segment. Output is
// byte-for-byte deterministic for the same input: timestamps come from the
// points themselves, never from the wall clock.
func Encode(name string, points []Point) ([]byte, error) {
	doc := document{
		Version: "1.1",
		Creator: "horsly",
		Xmlns:   "http://www.topografix.com/GPX/1/1",
		Trk:     track{Name: name},
	}
	for _, p := range points {
		tp := trackPoint{
			Lat:  p.Lat,
			Lon:  p.Lng,
			Time: p.Time.UTC().Format(time.RFC3339),
		}
		if p.SpeedKmh != nil {
			tp.Extensions = &extensions{SpeedKmh: *p.SpeedKmh}
		}
		doc.Trk.Segment.Points = append(doc.Trk.Segment.Points, tp)
	}

	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(xml.Header)+len(body)+1)
	out = append(out, xml.Header...)
	out = append(out, body...)
	out = append(out, '\n')
	return out, nil
}
