package keyframes

import "fmt"

// Collector folds per-frame scene-change reports into an ordered keyframe list.
// Frames may be reported in any order; each frame must be reported at least once.
type Collector struct {
	flags    []bool
	seen     []bool
	done     int
	step     int
	progress func(percent int)
}

// NewCollector prepares a collector for total frames. progress, if non-nil, is
// called with the completed percentage every total/25 frames.
func NewCollector(total int, progress func(percent int)) *Collector {
	if total < 0 {
		total = 0
	}
	return &Collector{
		flags:    make([]bool, total),
		seen:     make([]bool, total),
		step:     max(total/25, 1),
		progress: progress,
	}
}

// Add records the scene-change flag of frame n. A repeated report overwrites
// the earlier flag and does not count towards progress.
func (c *Collector) Add(n int, sceneChange bool) error {
	if n < 0 || n >= len(c.flags) {
		return fmt.Errorf("frame %d out of range [0, %d)", n, len(c.flags))
	}
	c.flags[n] = sceneChange
	if c.seen[n] {
		return nil
	}
	c.seen[n] = true
	c.done++
	if c.progress != nil && c.done%c.step == 0 {
		c.progress(100 * c.done / len(c.flags))
	}
	return nil
}

// Done reports how many distinct frames have been added.
func (c *Collector) Done() int { return c.done }

// Keyframes returns the flagged frame numbers in ascending order.
func (c *Collector) Keyframes() ([]int, error) {
	if c.done != len(c.flags) {
		return nil, fmt.Errorf("scene detection reported %d of %d frames", c.done, len(c.flags))
	}
	out := []int{}
	for n, flag := range c.flags {
		if flag {
			out = append(out, n)
		}
	}
	return out, nil
}
