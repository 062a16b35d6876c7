package scoring

// Percentage returns the rounded share of correct answers.
func Percentage(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return (correct*200 + total) / (total * 2)
}

// Rank maps a run to the title shown on the ending screen.
func Rank(correct, total int) string {
	switch p := Percentage(correct, total); {
	case p >= 90:
		return "Legendary Chemist"
	case p >= 75:
		return "Elite Specialist"
	case p >= 60:
		return "Skilled Survivor"
	case p >= 40:
		return "Brave Apprentice"
	default:
		return "Determined Novice"
	}
}

// Ending picks the closing scenario.
func Ending(correct, total int) string {
	switch p := Percentage(correct, total); {
	case p >= 90:
		return "total_success"
	case p >= 70:
		return "mission_accomplished"
	case p >= 50:
		return "critical_survival"
	default:
		return "critical_failure"
	}
}
