package store

// Grade classifies a model kit line.
type Grade string

const (
	// GradeHG is High Grade, 1/144 scale
	GradeHG Grade = "HG"
	// GradeRG is Real Grade, 1/144 scale
	GradeRG Grade = "RG"
	// GradeMG is Master Grade, 1/100 scale
	GradeMG Grade = "MG"
	// GradeVerKa is the Ver.Ka design line
	GradeVerKa Grade = "MR_VER_KA"
	// GradeMGEX is Master Grade Extreme
	GradeMGEX Grade = "MGEX"
	// GradePG is Perfect Grade, 1/60 scale
	GradePG Grade = "PG"
)

// AllGrades returns the known grades in catalog order.
func AllGrades() []Grade {
	return []Grade{GradeHG, GradeRG, GradeMG, GradeVerKa, GradeMGEX, GradePG}
}

// IsValidGrade checks the value against the closed grade set.
func IsValidGrade(g Grade) bool {
	switch g {
	case GradeHG, GradeRG, GradeMG, GradeVerKa, GradeMGEX, GradePG:
		return true
	default:
		return false
	}
}

// ParseGrade safely parses a string into a Grade.
func ParseGrade(s string) (Grade, bool) {
	g := Grade(s)
	return g, IsValidGrade(g)
}
