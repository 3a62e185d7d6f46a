package service

import "strings"

type Gender string

const (
	GenderFemale Gender = "स्त्री"
	GenderMale   Gender = "पुरुष"
	GenderOther  Gender = "अन्य"
)

// Окончания маратхских имён; женские проверяются первыми.
var (
	femaleEndings = []string{"ा", "ी", "ीत", "िन", "िया", "ना", "ता", "ला", "मा", "वी"}
	maleEndings   = []string{"े", "य", "क", "र", "स", "त", "न", "प", "ज", "व"}
)

// DetectGender грубо угадывает пол по окончанию имени.
func DetectGender(name string) Gender {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, ending := range femaleEndings {
		if strings.HasSuffix(name, ending) {
			return GenderFemale
		}
	}
	for _, ending := range maleEndings {
		if strings.HasSuffix(name, ending) {
			return GenderMale
		}
	}
	return GenderOther
}

func (g Gender) Badge() string {
	switch g {
	case GenderFemale:
		return "👮‍♀️"
	case GenderMale:
		return "👮‍♂️"
	}
	return "👮"
}
