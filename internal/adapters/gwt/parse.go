package gwt

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/campus-tools/adeplanning/internal/domain/model"
	apperrors "github.com/campus-tools/adeplanning/internal/errors"
)

const (
	markerOK        = "//OK"
	markerException = "//EX"
	snippetLen      = 160
)

// Response scraping contracts. Bodies are semi-structured text, not a grammar.
var (
	lookupIDRe = regexp.MustCompile(`//OK\[([0-9]+),`)
	childRe    = regexp.MustCompile(`\{\\"(\d+)(?:\\"){2}(true|false).*?\\"LabelName(?:\\"){2}([\w()|/ -]+)`)
)

// checkResponse rejects remote exceptions.
func checkResponse(body string, stage apperrors.Stage) error {
	if strings.HasPrefix(body, markerException) {
		return apperrors.ProtocolParsef(stage, "remote exception: %s", snippet(body))
	}
	return nil
}

// ParseLookupID extracts the resource id from a getResourceIds response.
func ParseLookupID(body string) (int, error) {
	if err := checkResponse(body, apperrors.StageRPCLookupID); err != nil {
		return 0, err
	}
	m := lookupIDRe.FindStringSubmatch(body)
	if m == nil {
		return 0, apperrors.ProtocolParse(apperrors.StageRPCLookupID, "id not found")
	}
	id, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, apperrors.ProtocolParsef(apperrors.StageRPCLookupID, "id out of range: %s", m[1])
	}
	return id, nil
}

// ParseChildren extracts child records from a getChildren response, in backend order.
// Records echoing the queried folder are dropped.
func ParseChildren(body string, folderID int) ([]model.ChildEntry, error) {
	if err := checkResponse(body, apperrors.StageRPCListChildren); err != nil {
		return nil, err
	}
	if !strings.HasPrefix(body, markerOK) {
		return nil, apperrors.ProtocolParsef(apperrors.StageRPCListChildren,
			"folder %d: response lacks %s marker: %s", folderID, markerOK, snippet(body))
	}

	matches := childRe.FindAllStringSubmatch(body, -1)
	out := make([]model.ChildEntry, 0, len(matches))
	for _, m := range matches {
		id, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, apperrors.ProtocolParsef(apperrors.StageRPCListChildren, "folder %d: bad child id %q", folderID, m[1])
		}
		if id == folderID {
			continue
		}
		out = append(out, model.ChildEntry{
			ID:       id,
			Name:     strings.TrimSpace(m[3]),
			IsFolder: m[2] == "true",
		})
	}
	return out, nil
}

func snippet(body string) string {
	if len(body) <= snippetLen {
		return body
	}
	cut := snippetLen
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	return body[:cut] + "..."
}
