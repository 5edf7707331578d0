package service

import (
	"testing"

	"github.com/document-requests-api/internal/domain"
)

func TestValidateFile(t *testing.T) {
	tests := []struct {
		name     string
		formats  string
		data     []byte
		wantMime string
		wantErr  bool
	}{
		{"pdf allowed", "pdf", []byte("%PDF-1.4\n1 0 obj\n"), "application/pdf", false},
		{"rtf allowed", "rtf", []byte(`{\rtf1\ansi hello}`), "text/rtf", false},
		{"tiff allowed", "tif,tiff", []byte("II*\x00\x08\x00\x00\x00\x00\x00"), "image/tiff", false},
		{"any type without formats", "", []byte("plain notes"), "text/plain; charset=utf-8", false},
		{"text rejected for pdf", "pdf", []byte("plain notes"), "", true},
		{"rtf rejected for pdf", "pdf", []byte(`{\rtf1\ansi hello}`), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &domain.DocumentRequest{AcceptedFormats: tt.formats, MaxFileSizeMB: 1}
			got, err := validateFile(req, FileUpload{FileName: "upload", Data: tt.data})
			if tt.wantErr {
				assertKind(t, err, domain.ErrValidation)
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.wantMime {
				t.Errorf("expected %s, got %s", tt.wantMime, got)
			}
		})
	}
}

func TestKnownFormat(t *testing.T) {
	for _, ext := range []string{"pdf", "docx", "odt", "ods", "odp", "rtf", "tif", "tiff", "bmp"} {
		if !knownFormat(ext) {
			t.Errorf("expected %s to be known", ext)
		}
	}
	for _, ext := range []string{"exe", "abc", ""} {
		if knownFormat(ext) {
			t.Errorf("expected %s to be unknown", ext)
		}
	}
}
