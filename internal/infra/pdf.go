package infra

// pdf.go: order receipt rendered with go-pdf/fpdf. A4 portrait with
//   - shop name header and order id/date
//   - buyer block
//   - line items from the order snapshot (name, qty, unit price, subtotal)
//   - bold total and status

import (
	"bytes"
	"fmt"

	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/model"

	"github.com/go-pdf/fpdf"
)

// GeneratePedidoPDF renders the receipt of an order and returns the PDF bytes.
func GeneratePedidoPDF(storeName string, pedido *model.Pedido) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW, 9, tr(storeName), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, tr("Comprobante de pedido"), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 5, "Pedido "+pedido.ID.String(), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 5, pedido.CreatedAt.Format("02/01/2006 15:04"), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	// ── Buyer ────────────────────────────────────────────────────────────────
	c := pedido.Comprador
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(contentW, 6, "Comprador", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, tr(c.Nombre)+" <"+c.Email+">", "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 5, tr(fmt.Sprintf("%s (CP %s)", c.Direccion, c.CodigoPostal)), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	// ── Items ────────────────────────────────────────────────────────────────
	col1 := contentW * 0.50
	col2 := contentW * 0.12
	col3 := contentW * 0.19
	col4 := contentW * 0.19

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(col1, 6, "Producto", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 6, "Cant", "B", 0, "C", false, 0, "")
	pdf.CellFormat(col3, 6, "Precio", "B", 0, "R", false, 0, "")
	pdf.CellFormat(col4, 6, "Subtotal", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, l := range pedido.Productos {
		nombre := []rune(l.Nombre)
		if len(nombre) > 48 {
			nombre = append(nombre[:47], '…')
		}
		pdf.CellFormat(col1, 6, tr(string(nombre)), "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 6, fmt.Sprintf("%d", l.Cantidad), "", 0, "C", false, 0, "")
		pdf.CellFormat(col3, 6, "$"+l.Precio.StringFixed(2), "", 0, "R", false, 0, "")
		pdf.CellFormat(col4, 6, "$"+l.Subtotal().StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.Ln(2)
	pdf.Line(15, pdf.GetY(), pageW-15, pdf.GetY())
	pdf.Ln(2)

	// ── Totals ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(col1+col2+col3, 7, "TOTAL", "", 0, "L", false, 0, "")
	pdf.CellFormat(col4, 7, "$"+pedido.Total.StringFixed(2), "", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, "Estado: "+pedido.Estado, "", 1, "L", false, 0, "")

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.CellFormat(contentW, 4, tr("¡Gracias por tu compra!"), "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: render: %w", err)
	}
	return buf.Bytes(), nil
}
