package httpapi

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"bahikhata/backend/internal/domain"
	"bahikhata/backend/internal/export"
)

func (a *API) handleParties(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		list := a.service.ListParties
		if wantDeleted(r) {
			list = a.service.ListDeletedParties
		}
		parties, err := list(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"parties": parties})
	case http.MethodPost:
		var req domain.PartyCreateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		party, err := a.service.CreateParty(r.Context(), req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"party": party})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handlePartyActions(w http.ResponseWriter, r *http.Request) {
	parts := pathParts(r.URL.Path, "/api/v1/parties/")
	if len(parts) == 0 {
		writeError(w, http.StatusBadRequest, errors.New("party id required"))
		return
	}
	id := parts[0]

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			party, err := a.service.GetParty(r.Context(), id)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"party": party})
		case http.MethodPatch:
			var req domain.PartyUpdateRequest
			if err := decodeJSON(r, &req); err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			party, err := a.service.UpdateParty(r.Context(), id, req)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"party": party})
		case http.MethodDelete:
			if err := a.service.DeleteParty(r.Context(), id); err != nil {
				writeServiceError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			writeMethodNotAllowed(w)
		}
		return
	}

	if len(parts) != 2 {
		writeNotFound(w)
		return
	}

	switch parts[1] {
	case "ledger":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w)
			return
		}
		ledger, err := a.service.PartyLedger(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ledger)
	case "weekly-report":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w)
			return
		}
		a.handleWeeklyReport(w, r, id)
	case "restore":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w)
			return
		}
		party, err := a.service.RestoreParty(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"party": party})
	default:
		writeNotFound(w)
	}
}

type reportRenderer struct {
	contentType string
	ext         string
	inline      bool
	render      func(io.Writer, domain.Party, domain.WeeklySummary) error
}

var reportRenderers = map[string]reportRenderer{
	"csv":  {contentType: "text/csv; charset=utf-8", ext: "csv", render: export.WeeklyReportCSV},
	"html": {contentType: "text/html; charset=utf-8", ext: "html", inline: true, render: export.WeeklyReportHTML},
	"xlsx": {contentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", ext: "xlsx", render: export.WeeklyReportXLSX},
}

func (a *API) handleWeeklyReport(w http.ResponseWriter, r *http.Request, partyID string) {
	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))

	renderer, ok := reportRenderers[format]
	if !ok && format != "" && format != "json" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("unsupported report format %q", format))
		return
	}

	report, err := a.service.WeeklyReport(r.Context(), partyID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusOK, report)
		return
	}

	var buf bytes.Buffer
	if err := renderer.render(&buf, report.Party, report.Summary); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", renderer.contentType)
	if !renderer.inline {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(report.Party, report.Summary, renderer.ext)))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
