package chat

import (
	"strings"
	"testing"
)

func TestResolvedMIME(t *testing.T) {
	cases := []struct {
		name     string
		declared string
		want     string
	}{
		{"photo.png", "", "image/png"},
		{"photo.PNG", "", "image/png"},
		{"photo.jpg", "image/jpg", "image/jpeg"},
		{"clip.wav", "audio/x-wav", "audio/wav"},
		{"song.mp3", "", "audio/mpeg"},
		{"notes.txt", "", "text/plain"},
		{"data.json", "", "application/json"},
		{"doc.md", "text/markdown; charset=utf-8", "text/markdown"},
		{"weird.png", "garbage", "image/png"},
		{"noext", "", ""},
	}
	for _, tc := range cases {
		a := Attachment{Name: tc.name, MIME: tc.declared}
		if got := a.ResolvedMIME(); got != tc.want {
			t.Errorf("%s (%q): got %q, want %q", tc.name, tc.declared, got, tc.want)
		}
	}
}

func TestAttachmentKinds(t *testing.T) {
	img := Attachment{Name: "a.png"}
	if !img.IsImage() || img.IsAudio() || img.IsText() {
		t.Fatal("png misclassified")
	}
	aud := Attachment{Name: "a.ogg"}
	if !aud.IsAudio() || aud.IsImage() {
		t.Fatal("ogg misclassified")
	}
	txt := Attachment{Name: "a.yaml"}
	if !txt.IsText() {
		t.Fatal("yaml misclassified")
	}
}

func TestInlineTextAttachments(t *testing.T) {
	out := InlineTextAttachments("summarize this", []Attachment{
		{Name: "notes.txt", Data: []byte("line one")},
		{Name: "photo.png", Data: []byte{1, 2, 3}},
	})
	if !strings.HasPrefix(out, "summarize this") {
		t.Fatal("prompt prefix lost")
	}
	if !strings.Contains(out, "<<<FILE notes.txt>>>") || !strings.Contains(out, "line one") {
		t.Fatalf("text attachment not inlined: %q", out)
	}
	if strings.Contains(out, "photo.png") {
		t.Fatal("binary attachment must not be inlined")
	}
}

func TestInlineTextAttachmentsNoTextFiles(t *testing.T) {
	base := "hello"
	if out := InlineTextAttachments(base, []Attachment{{Name: "a.png", Data: []byte{1}}}); out != base {
		t.Fatalf("got %q, want untouched prompt", out)
	}
	if out := InlineTextAttachments(base, nil); out != base {
		t.Fatalf("got %q, want untouched prompt", out)
	}
}
