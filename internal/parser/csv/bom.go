package csv

// utf8BOM is dropped from the head of the stream if present.
const utf8BOM = "\uFEFF"

// skipBOM discards a leading UTF-8 BOM so it never reaches the first field.
// It runs after decoding, so a UTF-16 BOM decoded to U+FEFF is dropped too.
func (r *Reader) skipBOM() {
	b, err := r.br.Peek(len(utf8BOM))
	if err != nil || string(b) != utf8BOM {
		return
	}
	n, _ := r.br.Discard(len(utf8BOM))
	r.offset += int64(n)
}
