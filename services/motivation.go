package services

import "fmt"

// Weekly brushing thresholds for the message tiers.
const (
	praiseThreshold    = 14
	encourageThreshold = 7
)

// MotivationGenerator produces a motivational message from the user's derived
// engagement state. Pure rules, no learned component.
type MotivationGenerator struct{}

// NewMotivationGenerator returns a generator instance.
func NewMotivationGenerator() *MotivationGenerator {
	return &MotivationGenerator{}
}

// Generate maps (level, weekly frequency, points) to a message. Three tiers:
// high praise at 14+ brushings a week, encouragement at 7+, a gentle nudge
// below that. The nudge tier deliberately omits the weekly count.
func (g *MotivationGenerator) Generate(level, weeklyFrequency, points int) string {
	switch {
	case weeklyFrequency >= praiseThreshold:
		return fmt.Sprintf(
			"Amazing work, smile warrior! %d brushings this week and %d points put you at level %d. Keep it up and unlock more rewards!",
			weeklyFrequency, points, level)
	case weeklyFrequency >= encourageThreshold:
		return fmt.Sprintf(
			"You're doing well! %d brushings a week and %d points already put you at level %d. Let's climb together!",
			weeklyFrequency, points, level)
	default:
		return fmt.Sprintf(
			"You're at level %d with %d points. How about stepping up your routine and brushing more often? Your smile deserves it!",
			level, points)
	}
}
