package textproc

var negations = map[string]struct{}{
	"tidak": {}, "tak": {}, "kurang": {}, "jangan": {}, "bukan": {},
	"tanpa": {}, "belum": {}, "kecuali": {},
	"enggak": {}, "engga": {}, "gak": {}, "ga": {}, "nggak": {}, "ngga": {}, "ndak": {},
}

// IsNegation reports whether w is a negation marker. Negation markers are
// never removed as stopwords.
func IsNegation(w string) bool {
	_, ok := negations[w]
	return ok
}
