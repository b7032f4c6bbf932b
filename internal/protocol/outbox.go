package protocol

import (
	"context"
	"encoding/json"
	"fmt"
)

// Sender writes one text frame to the server connection.
type Sender interface {
	Send(ctx context.Context, frame []byte) error
}

// Journal receives a copy of every frame that was handed to the Sender.
type Journal interface {
	RecordFrame(action string, frame []byte)
}

// Outbox is the only path by which frames leave the client: it validates
// each frame before sending it.
type Outbox struct {
	sender    Sender
	validator *Validator
	journal   Journal
}

// NewOutbox wires a sender and validator. journal may be nil.
func NewOutbox(sender Sender, validator *Validator, journal Journal) *Outbox {
	return &Outbox{sender: sender, validator: validator, journal: journal}
}

// Encode marshals and validates v without sending it.
func (o *Outbox) Encode(v any) ([]byte, error) {
	frame, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	if err := o.validator.Validate(frame); err != nil {
		return nil, err
	}
	return frame, nil
}

// Send encodes, validates and sends v, returning the exact bytes sent.
func (o *Outbox) Send(ctx context.Context, v any) ([]byte, error) {
	frame, err := o.Encode(v)
	if err != nil {
		return nil, err
	}
	return frame, o.SendRaw(ctx, frame)
}

// SendRaw validates and sends frame unchanged.
func (o *Outbox) SendRaw(ctx context.Context, frame []byte) error {
	if err := o.validator.Validate(frame); err != nil {
		return err
	}
	if err := o.sender.Send(ctx, frame); err != nil {
		return fmt.Errorf("send frame: %w", err)
	}
	if o.journal != nil {
		base, _ := DecodeBase(frame)
		o.journal.RecordFrame(base.Action, frame)
	}
	return nil
}
