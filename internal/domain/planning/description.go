package planning

import (
	"regexp"
	"strings"

	"github.com/campus-tools/adeplanning/internal/domain/model"
)

var (
	// course code line, e.g. "AB12345"
	idLine = regexp.MustCompile(`^[A-Z0-9]{5,}$`)
	// single upper-case word, e.g. "TD", "CM"
	typeLine = regexp.MustCompile(`^[A-Z]+$`)
	// family name: upper case, accented capitals and hyphens allowed
	teacherFamily = regexp.MustCompile(`^[A-ZÀ-ÖØ-Ý-]+$`)
	// given name: one capital then lower case, accents allowed
	teacherGiven = regexp.MustCompile(`^[A-ZÀ-ÖØ-Ý][a-zà-öø-ÿ]+$`)
	// student group codes, e.g. E1, I2, R&I3, SEE1, T2
	groupToken = regexp.MustCompile(`^(?:E|I|M|R&I|SEE|T)[0-9]+$`)
)

// ExtractDescription classifies cleaned description lines. Extraction order matters on
// ambiguous input and is fixed: id, then type, then teachers, then groups from what is left.
func ExtractDescription(lines []string) model.EventDescription {
	work := append([]string(nil), lines...)

	desc := model.EventDescription{
		Groups:   []string{},
		Teachers: []string{},
	}

	if i := indexOf(work, idLine.MatchString); i >= 0 {
		id := work[i]
		desc.ID = &id
		work = removeAt(work, i)
	}

	if i := indexOf(work, typeLine.MatchString); i >= 0 {
		typ := work[i]
		desc.Type = &typ
		work = removeAt(work, i)
	}

	var rest []string
	for _, line := range work {
		if isTeacher(line) {
			desc.Teachers = append(desc.Teachers, line)
			continue
		}
		rest = append(rest, line)
	}

	for _, line := range rest {
		for _, word := range strings.Split(line, " ") {
			if groupToken.MatchString(word) {
				desc.Groups = append(desc.Groups, word)
			}
		}
	}

	return desc
}

func isTeacher(line string) bool {
	words := strings.Split(line, " ")
	if len(words) < 2 {
		return false
	}
	return teacherFamily.MatchString(words[0]) && teacherGiven.MatchString(words[len(words)-1])
}

func indexOf(lines []string, match func(string) bool) int {
	for i, l := range lines {
		if match(l) {
			return i
		}
	}
	return -1
}

func removeAt(lines []string, i int) []string {
	out := make([]string, 0, len(lines)-1)
	out = append(out, lines[:i]...)
	return append(out, lines[i+1:]...)
}
