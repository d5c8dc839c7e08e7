package results

import "strconv"

// LabelParts is the decomposition of a droplet label of the form
// "<inkKey>_<inkType>_<replicate>", for example "2_25wtp_petro_03".
type LabelParts struct {
	InkKey    int
	InkType   string
	Replicate int
}

// ParseLabel splits a droplet label into its parts. The ink key is the
// token before the first underscore and must be one of 1..4. The replicate
// is the token after the last underscore, all digits, at least 1. The ink
// type is everything in between and may itself contain underscores.
// ok is false when the label does not follow the grammar.
func ParseLabel(label string) (LabelParts, bool) {
	first := -1
	last := -1
	for i, c := range label {
		if c != '_' {
			continue
		}
		if first < 0 {
			first = i
		}
		last = i
	}
	if first < 0 || last == first {
		return LabelParts{}, false
	}

	keyTok := label[:first]
	typeTok := label[first+1 : last]
	repTok := label[last+1:]
	if !digitsOnly(keyTok) || !digitsOnly(repTok) || typeTok == "" {
		return LabelParts{}, false
	}

	key, err := strconv.Atoi(keyTok)
	if err != nil || key < 1 || key > 4 {
		return LabelParts{}, false
	}
	rep, err := strconv.Atoi(repTok)
	if err != nil || rep < 1 {
		return LabelParts{}, false
	}

	return LabelParts{InkKey: key, InkType: typeTok, Replicate: rep}, true
}

func digitsOnly(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// InkDescription maps an ink key to its human-readable formulation.
// Unknown keys return the empty string.
func InkDescription(key int) string {
	switch key {
	case 1:
		return "5 wt% C, petroleum"
	case 2:
		return "25 wt% C, petroleum"
	case 3:
		return "25 wt% C, IPA"
	case 4:
		return "Sharpie (control)"
	default:
		return ""
	}
}
