package report

import "golang.org/x/text/transform"

type sanitizer struct{ transform.NopResetter }

// Sanitizer returns a transformer that drops carriage returns and anything
// that isn't printable ASCII, like line noise from a serial port that was
// just reinitialized.
func Sanitizer() transform.Transformer {
	return sanitizer{}
}

func (sanitizer) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for _, c := range src {
		if c == '\n' || c == '\t' || (c >= ' ' && c < 0x7f) {
			if nDst >= len(dst) {
				err = transform.ErrShortDst
				break
			}
			dst[nDst] = c
			nDst++
		}
		nSrc++
	}
	return
}
