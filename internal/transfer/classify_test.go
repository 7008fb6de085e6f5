package transfer

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		want Kind
	}{
		{"photo.JPG", KindImage},
		{"photo.jpeg", KindImage},
		{"diagram.svg", KindImage},
		{"anim.Gif", KindImage},
		{"pic.webp", KindImage},
		{"clip.mp4", KindVideo},
		{"clip.MKV", KindVideo},
		{"old.wmv", KindVideo},
		{"doc.pdf", KindPDF},
		{"DOC.PDF", KindPDF},
		{"archive.zip", KindOther},
		{"noext", KindOther},
		{"", KindOther},
		{"trailingdot.", KindOther},
		{"pdf", KindOther},
		{"/tmp/dir.png/file.txt", KindOther},
		{"report.pdf.zip", KindOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.name); got != tt.want {
				t.Errorf("Classify(%q) = %s, want %s", tt.name, got, tt.want)
			}
		})
	}
}
