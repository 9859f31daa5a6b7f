package models

import "testing"

func TestLevelForPoints(t *testing.T) {
	cases := []struct {
		points int
		want   int
	}{
		{0, 0},
		{99, 0},
		{100, 1},
		{101, 1},
		{250, 2},
		{1000, 10},
		{-5, 0}, // defensive clamp, ledger never allows this
	}
	for _, c := range cases {
		if got := LevelForPoints(c.points); got != c.want {
			t.Errorf("LevelForPoints(%d) = %d, want %d", c.points, got, c.want)
		}
	}
}

func TestUserLevelDerivedFromPoints(t *testing.T) {
	u := User{Points: 320}
	if got := u.Level(); got != 3 {
		t.Errorf("expected level 3, got %d", got)
	}
}

func TestValidPeriod(t *testing.T) {
	for _, p := range []string{PeriodMorning, PeriodAfternoon, PeriodNight} {
		if !ValidPeriod(p) {
			t.Errorf("expected %q to be valid", p)
		}
	}
	for _, p := range []string{"", "noon", "Morning"} {
		if ValidPeriod(p) {
			t.Errorf("expected %q to be invalid", p)
		}
	}
}
