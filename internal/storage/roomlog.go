package storage

import (
	"github.com/sirupsen/logrus"

	"dealclient/internal/veto"
)

// RoomLog binds the store to one room. It satisfies the outbox journal and
// the negotiator's recorder; write failures are logged and never block play.
type RoomLog struct {
	store *Store
	room  string
	log   logrus.FieldLogger
}

func NewRoomLog(store *Store, room string, log logrus.FieldLogger) *RoomLog {
	return &RoomLog{store: store, room: room, log: log.WithField("room", room)}
}

func (l *RoomLog) RecordFrame(action string, frame []byte) {
	if err := l.store.AppendJournal(l.room, action, string(frame)); err != nil {
		l.log.WithError(err).WithField("action", action).Warn("journal frame")
	}
}

func (l *RoomLog) RecordNegotiation(w *veto.Window, o veto.Outcome) {
	err := l.store.RecordNegotiation(NegotiationRow{
		WindowID:   w.ID,
		Room:       l.room,
		Initiator:  w.InitiatorID,
		Target:     w.TargetID,
		ActionCard: w.ActionCard.ID,
		Outcome:    string(o),
	})
	if err != nil {
		l.log.WithError(err).WithField("window", w.ID).Warn("record negotiation")
	}
}
