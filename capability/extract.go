package capability

import (
	"strings"

	"github.com/sweetpotato0/rehab-orchestra/caserecord"
)

// Extract pulls obvious fields out of a raw message with simple pattern
// matching. It runs before (and between) LLM parse invocations so follow-up
// answers merge into the case record without a model round trip.
func Extract(text string) map[string]string {
	lower := strings.ToLower(text)
	fields := make(map[string]string)

	for _, exercise := range knownExercises {
		if strings.Contains(lower, exercise) {
			fields[caserecord.FieldExercise] = normalizeExercise(exercise)
			break
		}
	}

	location := ""
	for _, part := range bodyParts {
		if strings.Contains(lower, part.pattern) {
			location = part.normalized
			break
		}
	}

	side := ""
	switch {
	case strings.Contains(lower, "right"):
		side = "right"
	case strings.Contains(lower, "left"):
		side = "left"
	}
	if side != "" {
		fields[caserecord.FieldPainSide] = side
		if location != "" {
			location = side + " " + location
		}
	}
	if location != "" {
		fields[caserecord.FieldPainLocation] = location
	}

	if timing := extractTiming(lower); timing != "" {
		fields[caserecord.FieldPainTiming] = timing
	}

	for _, intensity := range []string{"sharp", "dull", "aching", "burning", "mild", "severe"} {
		if strings.Contains(lower, intensity) {
			fields[caserecord.FieldPainIntensity] = intensity
			break
		}
	}

	return fields
}

func extractTiming(lower string) string {
	phases := []string{"bottom", "descent", "ascent", "lockout", "lowering", "coming up", "going down"}
	for _, phase := range phases {
		if strings.Contains(lower, phase) {
			return "during movement (" + phase + ")"
		}
	}
	for _, pattern := range []string{"after", "following", "next day", "day after", "post"} {
		if strings.Contains(lower, pattern) {
			return "after the workout"
		}
	}
	for _, pattern := range []string{"during", "while", "when i", "as i"} {
		if strings.Contains(lower, pattern) {
			return "during the movement"
		}
	}
	return ""
}

func normalizeExercise(match string) string {
	singular := strings.TrimSuffix(match, "s")
	if singular == "bench pres" { // trimmed one s too many
		return "bench press"
	}
	return singular
}

// Longer names first so "bench press" wins over "bench".
var knownExercises = []string{
	"overhead press", "bench press", "barbell row", "leg press", "leg curl",
	"leg extension", "lat pulldown", "bicep curls", "bicep curl",
	"tricep extension", "deadlifts", "deadlift", "squats", "squat",
	"pull ups", "pull up", "pullups", "pullup", "pull-ups", "pull-up",
	"chin ups", "chin up", "chinups", "chinup",
	"push ups", "push up", "pushups", "pushup", "push-ups", "push-up",
	"lunges", "lunge", "planks", "plank", "rows", "row", "dips", "dip",
	"cleans", "clean", "snatch", "bench", "running", "jogging", "sprinting",
}

// Ordered, most specific patterns first, so "lower back" wins over "back".
var bodyParts = []struct {
	pattern    string
	normalized string
}{
	{"lower back", "lower back"},
	{"upper back", "upper back"},
	{"hamstrings", "hamstring"},
	{"hamstring", "hamstring"},
	{"quadriceps", "quadriceps"},
	{"quads", "quadriceps"},
	{"quad", "quadriceps"},
	{"shoulders", "shoulder"},
	{"shoulder", "shoulder"},
	{"knees", "knee"},
	{"knee", "knee"},
	{"elbows", "elbow"},
	{"elbow", "elbow"},
	{"wrists", "wrist"},
	{"wrist", "wrist"},
	{"ankles", "ankle"},
	{"ankle", "ankle"},
	{"calves", "calf"},
	{"calf", "calf"},
	{"glutes", "glute"},
	{"glute", "glute"},
	{"hips", "hip"},
	{"hip", "hip"},
	{"neck", "neck"},
	{"chest", "chest"},
	{"back", "back"},
}
