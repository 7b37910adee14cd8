package booking

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"yatra/db"
	"yatra/models"
	"yatra/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
)

const qrSize = 256

// QRImage renders the booking's code as a PNG for gate scanners.
func (h *Handler) QRImage(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, ok := h.ownedBooking(w, r, ps)
	if !ok {
		return
	}

	png, err := qrcode.Encode(booking.QRCode, qrcode.Medium, qrSize)
	if err != nil {
		utils.RespondServerError(w, r, h.logger, fmt.Errorf("encode qr: %w", err))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// Pass renders a printable darshan pass: temple, slot and the QR code.
func (h *Handler) Pass(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, ok := h.ownedBooking(w, r, ps)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	temple, err := h.temples.FindByID(ctx, booking.Temple)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		utils.RespondServerError(w, r, h.logger, err)
		return
	}

	pdf, err := renderPass(booking, temple)
	if err != nil {
		utils.RespondServerError(w, r, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=darshan-pass-"+booking.QRCode+".pdf")
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}

// renderPass builds the PDF. temple may be nil when the reference no longer
// resolves.
func renderPass(booking *models.Booking, temple *models.Temple) ([]byte, error) {
	qrPNG, err := qrcode.Encode(booking.QRCode, qrcode.Medium, qrSize)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}

	templeName, location := "Unknown temple", "-"
	if temple != nil {
		templeName, location = temple.Name, temple.Location
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(0, 10, "Darshan Pass")
	pdf.Ln(14)

	pdf.SetFont("Arial", "", 12)
	lines := []string{
		"Temple: " + templeName,
		"Location: " + location,
		"Slot: " + booking.SlotTime.UTC().Format("02 Jan 2006 15:04 MST"),
		"Status: " + string(booking.Status),
		"Code: " + booking.QRCode,
	}
	for _, line := range lines {
		pdf.Cell(0, 8, line)
		pdf.Ln(8)
	}

	imageOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", imageOpts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 140, 30, 50, 50, false, imageOpts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pass: %w", err)
	}
	return buf.Bytes(), nil
}
