package xstitch

import "testing"

func TestNewFontServiceAcceptsEmptyData(t *testing.T) {
	svc, err := NewFontService(map[FontRole][]byte{})
	if err != nil {
		t.Fatalf("NewFontService error = %v", err)
	}
	if svc.ContainsGlyph(FontRegular, 'A') {
		t.Fatalf("ContainsGlyph with no data for role = true, want false")
	}
	if w := svc.TextWidth(FontRegular, "hello", 12); w != 0 {
		t.Fatalf("TextWidth with no data for role = %v, want 0", w)
	}
}

func TestNewFontServiceRejectsMalformedFontData(t *testing.T) {
	_, err := NewFontService(map[FontRole][]byte{FontRegular: []byte("not a font")})
	if err == nil {
		t.Fatalf("NewFontService with malformed data returned nil error")
	}
}

func TestLoadFontServiceFromFilesSkipsEmptyPaths(t *testing.T) {
	svc, err := LoadFontServiceFromFiles(map[FontRole]string{
		FontRegular: "",
		FontBold:    "",
	})
	if err != nil {
		t.Fatalf("LoadFontServiceFromFiles error = %v", err)
	}
	if svc.ContainsGlyph(FontBold, 'A') {
		t.Fatalf("ContainsGlyph for skipped role = true, want false")
	}
}

func TestLoadFontServiceFromFilesErrorsOnMissingFile(t *testing.T) {
	_, err := LoadFontServiceFromFiles(map[FontRole]string{
		FontRegular: "/nonexistent/path/does-not-exist.ttf",
	})
	if err == nil {
		t.Fatalf("LoadFontServiceFromFiles with missing file returned nil error")
	}
}

func TestFontRoleStringNamesEveryRole(t *testing.T) {
	cases := map[FontRole]string{
		FontRegular:  "regular",
		FontBold:     "bold",
		FontItalic:   "italic",
		FontSymbols:  "symbols",
		FontSymbols2: "symbols2",
	}
	for role, want := range cases {
		if got := role.String(); got != want {
			t.Errorf("FontRole(%d).String() = %q, want %q", int(role), got, want)
		}
	}
}
