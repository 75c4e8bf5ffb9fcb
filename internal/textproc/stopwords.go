package textproc

import (
	"bufio"
	"os"
	"strings"
)

// DefaultStopwords is a compact Indonesian function-word list.
var DefaultStopwords = []string{
	"ada", "adalah", "agak", "agar", "akan", "aku", "amat", "anda", "antara", "apa", "apakah",
	"atau", "bagaimana", "bagi", "bahkan", "bahwa", "banget", "begitu", "beliau", "berapa",
	"boleh", "buat", "bisa", "cukup", "dalam", "dan", "dapat", "dari", "daripada", "deh",
	"demi", "dengan", "di", "dia", "dong", "hal", "hanya", "harus", "hingga", "ia", "ialah",
	"ini", "itu", "jadi", "juga", "kalau", "kali", "kami", "kamu", "karena", "ke", "kita",
	"kok", "lagi", "lah", "lalu", "lebih", "maka", "mau", "masih", "memang", "mereka", "nya",
	"oleh", "pada", "para", "pun", "saat", "saja", "sama", "sambil", "sangat", "saya", "se",
	"sebagai", "sebelum", "sedang", "sekali", "sekitar", "selalu", "seperti", "serta",
	"setelah", "sih", "sini", "situ", "sudah", "supaya", "tapi", "tentang", "tetapi",
	"toh", "untuk", "walau", "yang", "yg", "dgn", "utk", "aja", "udah", "sdh",
	"tidak", "kurang", "jangan", "bukan", "tanpa", "belum",
}

// LoadStopwords reads one word per line; blank lines and lines starting
// with '#' are skipped.
func LoadStopwords(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		w := strings.ToLower(strings.TrimSpace(sc.Text()))
		if w == "" || strings.HasPrefix(w, "#") {
			continue
		}
		out = append(out, w)
	}
	return out, sc.Err()
}
