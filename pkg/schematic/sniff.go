package schematic

import (
	"bytes"
	"path/filepath"
	"strings"
)

// DetectFormat dispatches by filename extension first, then by a
// magic-byte sniff of data; if the two disagree, the sniff wins.
//
// GDSII streams open with a 2-byte big-endian record-length header whose
// first record is almost always a HEADER record (record type 0x0002); in
// practice the first two bytes are a short, even length followed by a
// record-type/data-type byte pair starting 0x00 0x02 or 0x01 0x02. SVG and
// DXF are both text formats; SVG is recognized by an XML/`<svg` prefix and
// DXF by its leading ASCII group-code lines (commonly "0\nSECTION").
func DetectFormat(filename string, data []byte) FormatType {
	byExt := detectByExtension(filename)
	bySniff := detectBySniff(data)

	if bySniff != "" {
		return bySniff
	}
	return byExt
}

func detectByExtension(filename string) FormatType {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".gds", ".gds2", ".gdsii":
		return FormatGDSII
	case ".dxf":
		return FormatDXF
	case ".svg":
		return FormatSVG
	default:
		return ""
	}
}

func detectBySniff(data []byte) FormatType {
	trimmed := bytes.TrimLeft(data, " \t\r\n\xef\xbb\xbf")

	if len(trimmed) == 0 {
		return ""
	}

	if looksLikeGDSII(data) {
		return FormatGDSII
	}

	if bytes.HasPrefix(trimmed, []byte("<?xml")) || bytes.Contains(trimmed[:min(len(trimmed), 512)], []byte("<svg")) {
		return FormatSVG
	}

	if looksLikeDXF(trimmed) {
		return FormatDXF
	}

	return ""
}

// looksLikeGDSII checks for a plausible leading record: a 2-byte
// big-endian record length (>=4, even) followed by a known record-type
// byte (0x00 or 0x01 for HEADER/BGNLIB).
func looksLikeGDSII(data []byte) bool {
	if len(data) < 4 {
		return false
	}
	recLen := int(data[0])<<8 | int(data[1])
	if recLen < 4 || recLen%2 != 0 {
		return false
	}
	recType := data[2]
	return recType == 0x00 || recType == 0x01
}

// looksLikeDXF checks for the characteristic leading "0" group code
// followed by a SECTION/HEADER/ENTITIES token within the first lines.
func looksLikeDXF(trimmed []byte) bool {
	lines := bytes.SplitN(trimmed, []byte("\n"), 6)
	for _, l := range lines {
		l = bytes.TrimSpace(l)
		if bytes.Equal(l, []byte("SECTION")) || bytes.Equal(l, []byte("HEADER")) || bytes.Equal(l, []byte("ENTITIES")) {
			return true
		}
	}
	return false
}
