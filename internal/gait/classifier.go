package gait

// Label is the discrete locomotion mode inferred from speed.
type Label string

const (
	Idle   Label = "idle"
	Walk   Label = "walk"
	Trot   Label = "trot"
	Canter Label = "canter"
	Gallop Label = "gallop"
)

// Speed bands in km/h, applied to the smoothed speed.
const (
	walkMinKmh   = 0.5
	trotMinKmh   = 7.0
	canterMinKmh = 15.0
	gallopMinKmh = 22.0
)

const (
	smoothingAlpha = 0.3
	commitStreak   = 3
)

// Classifier turns noisy instantaneous speed readings into a stable gait
// label. Speeds are smoothed with an exponential moving average and a new
// label is only committed after it has been observed commitStreak times in a
// row, so jitter near a band boundary cannot flap the reported gait.
type Classifier struct {
	smoothed  float64
	seeded    bool
	current   Label
	candidate Label
	streak    int
}

func NewClassifier() *Classifier {
	return &Classifier{current: Idle}
}

// Update feeds one instantaneous speed reading (km/h) and returns the label
// held after applying smoothing and hysteresis.
func (c *Classifier) Update(speedKmh float64) Label {
	if !c.seeded {
		c.smoothed = speedKmh
		c.seeded = true
	} else {
		c.smoothed = smoothingAlpha*speedKmh + (1-smoothingAlpha)*c.smoothed
	}

	next := labelForSpeed(c.smoothed)
	if next == c.current {
		// back on the held label, any pending switch is abandoned
		c.candidate = c.current
		c.streak = 0
		return c.current
	}

	if next == c.candidate {
		c.streak++
	} else {
		c.candidate = next
		c.streak = 1
	}
	if c.streak >= commitStreak {
		c.current = next
		c.streak = 0
	}
	return c.current
}

// Current returns the held label without consuming a reading.
func (c *Classifier) Current() Label {
	return c.current
}

// Reset clears the moving average and returns the classifier to idle.
func (c *Classifier) Reset() {
	*c = Classifier{current: Idle}
}

func labelForSpeed(speedKmh float64) Label {
	switch {
	case speedKmh < walkMinKmh:
		return Idle
	case speedKmh < trotMinKmh:
		return Walk
	case speedKmh < canterMinKmh:
		return Trot
	case speedKmh < gallopMinKmh:
		return Canter
	default:
		return Gallop
	}
}
