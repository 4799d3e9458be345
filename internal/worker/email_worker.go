package worker

// email_worker.go
// Sends the order confirmation email, with the receipt PDF attached, for
// JobPedidoConfirmacion jobs.

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/infra"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// PedidoFinder loads an order of one tenant.
type PedidoFinder interface {
	FindByID(ctx context.Context, slug string, id uuid.UUID) (*model.Pedido, error)
}

// TiendaFinder loads shop metadata.
type TiendaFinder interface {
	FindBySlug(ctx context.Context, slug string) (*model.Tienda, error)
}

// Sender delivers an email.
type Sender interface {
	Send(to, subject, body string, attachments ...infra.Attachment) error
}

type EmailWorker struct {
	pedidos PedidoFinder
	tiendas TiendaFinder
	mailer  Sender
}

func NewEmailWorker(pedidos PedidoFinder, tiendas TiendaFinder, mailer Sender) *EmailWorker {
	return &EmailWorker{pedidos: pedidos, tiendas: tiendas, mailer: mailer}
}

// Process renders the receipt and mails it to the buyer.
func (w *EmailWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload PedidoConfirmacionPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		// Malformed payloads never succeed: drop instead of retrying.
		log.Error().Err(err).Msg("email_worker: invalid payload")
		return nil
	}
	id, err := uuid.Parse(payload.PedidoID)
	if err != nil {
		log.Error().Str("pedido_id", payload.PedidoID).Msg("email_worker: invalid pedido id")
		return nil
	}

	pedido, err := w.pedidos.FindByID(ctx, payload.Slug, id)
	if err != nil {
		return fmt.Errorf("load pedido %s: %w", id, err)
	}
	if pedido.Comprador.Email == "" {
		log.Warn().Str("pedido_id", id.String()).Msg("email_worker: pedido without buyer email, skipping")
		return nil
	}

	storeName := payload.Slug
	if t, err := w.tiendas.FindBySlug(ctx, payload.Slug); err == nil {
		storeName = t.StoreName
	}

	pdf, err := infra.GeneratePedidoPDF(storeName, pedido)
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("%s: recibimos tu pedido", storeName)
	body := fmt.Sprintf("Hola %s,\n\nGracias por tu compra en %s. Total: $%s.\nAdjuntamos el comprobante del pedido %s.\n",
		pedido.Comprador.Nombre, storeName, pedido.Total.StringFixed(2), pedido.ID)

	err = w.mailer.Send(pedido.Comprador.Email, subject, body, infra.Attachment{
		Filename:    "pedido_" + pedido.ID.String() + ".pdf",
		ContentType: "application/pdf",
		Data:        pdf,
	})
	if err != nil {
		return fmt.Errorf("send confirmation: %w", err)
	}
	log.Info().Str("to", pedido.Comprador.Email).Str("pedido_id", id.String()).Msg("email_worker: confirmation sent")
	return nil
}
