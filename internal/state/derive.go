package state

// End-of-match derivations. Both functions are pure and operate on
// chronologically sorted history slices.

const maxStreakLength = 5

var streakLabels = map[int]string{
	2: "Double Kill",
	3: "Triple Kill",
	4: "Quadra Kill",
	5: "Penta Kill",
}

// KillStreaks segments a sorted list of kill timestamps into maximal runs in
// which each kill lands within window seconds of the previous kill in the run.
// Runs cap at five kills; a sixth kill in range starts a new run. Runs of two
// to five kills emit a label stamped with the run's last kill time; single
// kills emit nothing.
func KillStreaks(timestamps []float64, window float64) []string {
	streaks := []string{}

	for i := 0; i < len(timestamps); {
		last := timestamps[i]
		length := 1

		j := i + 1
		for j < len(timestamps) && timestamps[j]-last <= window && length < maxStreakLength {
			last = timestamps[j]
			length++
			j++
		}

		if label, ok := streakLabels[length]; ok {
			streaks = append(streaks, label+" at "+epochTime(last).Format("2006-01-02 15:04:05"))
		}
		i = j
	}

	return streaks
}

// MaxKillingSpree computes the longest run of human kills between deaths.
// A kill counts only while a later death remains, so kills after the player's
// final death never extend the spree.
func MaxKillingSpree(kills []KillRecord, deaths []float64) int {
	streak := 0
	maxStreak := 0
	deathIndex := 0

	for _, kill := range kills {
		if kill.KillType != killTypeHuman {
			continue
		}
		for deathIndex < len(deaths) && kill.Timestamp >= deaths[deathIndex] {
			if streak > maxStreak {
				maxStreak = streak
			}
			streak = 0
			deathIndex++
		}
		if deathIndex < len(deaths) {
			streak++
		}
	}
	if streak > maxStreak {
		maxStreak = streak
	}

	return maxStreak
}

var spreeLabels = map[int]string{
	3: "Killing Spree",
	4: "Rampage",
	5: "Unstoppable",
	6: "Dominating",
	7: "Godlike",
}

// SpreeLabel renders a raw spree count as its announcement label. Values above
// seven clamp to Godlike; values below three have no label.
func SpreeLabel(spree int) string {
	if spree > 7 {
		spree = 7
	}
	return spreeLabels[spree]
}
