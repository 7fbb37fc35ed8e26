package handlers

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/jung-kurt/gofpdf/v2"

	"medimind/internal/adherence"
	"medimind/internal/models"
	"medimind/internal/services"
)

// ExportData holds everything an adherence report needs
type ExportData struct {
	Medicines []models.Medicine
	Logs      []models.IntakeLog
	StartDate time.Time
	EndDate   time.Time
	Rate      float64
	Streak    adherence.Streak
}

// HandleExportCSV generates a CSV export of the intake history
func HandleExportCSV(sessions *services.SessionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := requireSession(w, r, sessions)
		if !ok {
			return
		}

		data, err := gatherExportData(session, r)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		var csvBuffer bytes.Buffer
		csvWriter := csv.NewWriter(&csvBuffer)

		if err := writeLogsCSV(csvWriter, data); err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to generate CSV")
			return
		}

		csvWriter.Flush()
		if err := csvWriter.Error(); err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to generate CSV")
			return
		}

		filename := fmt.Sprintf("medimind-logs-%s-to-%s.csv",
			data.StartDate.Format("2006-01-02"), data.EndDate.Format("2006-01-02"))
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		w.Header().Set("Content-Length", fmt.Sprintf("%d", csvBuffer.Len()))
		w.Write(csvBuffer.Bytes())
	}
}

// HandleExportPDF generates a PDF adherence report
func HandleExportPDF(sessions *services.SessionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := requireSession(w, r, sessions)
		if !ok {
			return
		}

		data, err := gatherExportData(session, r)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		pdfBytes, err := generatePDF(data)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to generate PDF")
			return
		}

		filename := fmt.Sprintf("medimind-report-%s-to-%s.pdf",
			data.StartDate.Format("2006-01-02"), data.EndDate.Format("2006-01-02"))
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		w.Header().Set("Content-Length", fmt.Sprintf("%d", len(pdfBytes)))
		w.Write(pdfBytes)
	}
}

// gatherExportData resolves the requested date range and collects the
// session's catalog and logs within it, newest first
func gatherExportData(session *services.Session, r *http.Request) (*ExportData, error) {
	var start, end time.Time
	var err error

	if v := r.URL.Query().Get("start_date"); v != "" {
		start, err = time.Parse("2006-01-02", v)
		if err != nil {
			return nil, fmt.Errorf("invalid start_date format, use YYYY-MM-DD")
		}
	} else {
		start = time.Now().AddDate(0, 0, -30)
	}

	if v := r.URL.Query().Get("end_date"); v != "" {
		end, err = time.Parse("2006-01-02", v)
		if err != nil {
			return nil, fmt.Errorf("invalid end_date format, use YYYY-MM-DD")
		}
		// Inclusive of the whole end day
		end = end.Add(24*time.Hour - time.Millisecond)
	} else {
		end = time.Now()
	}

	if end.Before(start) {
		return nil, fmt.Errorf("end_date must be after start_date")
	}

	all := session.Store.ListLogs()
	logs := make([]models.IntakeLog, 0, len(all))
	for _, l := range all {
		t := l.Time()
		if t.Before(start) || t.After(end) {
			continue
		}
		logs = append(logs, l)
	}
	sort.Slice(logs, func(i, j int) bool { return logs[i].Timestamp > logs[j].Timestamp })

	windowDays := int(end.Sub(start).Hours()/24) + 1

	return &ExportData{
		Medicines: session.Store.ListMedicines(),
		Logs:      logs,
		StartDate: start,
		EndDate:   end,
		Rate:      adherence.Rate(logs, windowDays, end),
		Streak:    adherence.Streaks(all, models.DateOf(time.Now())),
	}, nil
}

// writeLogsCSV writes the intake history as CSV rows
func writeLogsCSV(writer *csv.Writer, data *ExportData) error {
	names := make(map[string]string, len(data.Medicines))
	dosages := make(map[string]string, len(data.Medicines))
	for _, m := range data.Medicines {
		names[m.ID] = m.Name
		dosages[m.ID] = m.Dosage
	}

	header := []string{"Date", "Time", "Medicine", "Dosage", "Status"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, l := range data.Logs {
		name := names[l.MedicineID]
		if name == "" {
			// Medicine was since deleted; the log is still reportable
			name = "(deleted)"
		}
		row := []string{
			l.DateStr,
			l.Time().Format("15:04:05"),
			name,
			dosages[l.MedicineID],
			string(l.Status),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	return nil
}

// generatePDF renders an adherence report: summary figures, the current
// catalog, and the intake log for the requested period
func generatePDF(data *ExportData) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "MediMind Adherence Report")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Report Period: %s to %s",
		data.StartDate.Format("January 2, 2006"), data.EndDate.Format("January 2, 2006")))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Summary")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Adherence Rate: %.0f%%", data.Rate*100))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Current Streak: %d days", data.Streak.Current))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Longest Streak: %d days", data.Streak.Longest))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Logged Intakes: %d", len(data.Logs)))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Medicines")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(60, 6, "Name", "1", 0, "L", false, 0, "")
	pdf.CellFormat(40, 6, "Dosage", "1", 0, "L", false, 0, "")
	pdf.CellFormat(25, 6, "Time", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Frequency", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Stock", "1", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, m := range data.Medicines {
		stock := "-"
		if m.StockTracked() {
			stock = fmt.Sprintf("%d", *m.CurrentStock)
		}
		pdf.CellFormat(60, 6, m.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, m.Dosage, "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 6, m.Time, "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, m.Frequency, "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, stock, "1", 1, "C", false, 0, "")
	}
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Intake Log")
	pdf.Ln(8)

	names := make(map[string]string, len(data.Medicines))
	for _, m := range data.Medicines {
		names[m.ID] = m.Name
	}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(30, 6, "Date", "1", 0, "L", false, 0, "")
	pdf.CellFormat(20, 6, "Time", "1", 0, "C", false, 0, "")
	pdf.CellFormat(90, 6, "Medicine", "1", 0, "L", false, 0, "")
	pdf.CellFormat(25, 6, "Status", "1", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, l := range data.Logs {
		name := names[l.MedicineID]
		if name == "" {
			name = "(deleted)"
		}
		pdf.CellFormat(30, 6, l.DateStr, "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 6, l.Time().Format("15:04"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(90, 6, name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 6, string(l.Status), "1", 1, "C", false, 0, "")
	}

	var buffer bytes.Buffer
	if err := pdf.Output(&buffer); err != nil {
		return nil, fmt.Errorf("pdf output: %w", err)
	}
	return buffer.Bytes(), nil
}
