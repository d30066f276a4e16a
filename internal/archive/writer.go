package archive

import (
	"main/internal/eventlog"
	"main/pkg/conn"

	"github.com/yanun0323/errors"
	"gorm.io/gorm/clause"
)

const backfillBatch = 500

// EventRow is the relational projection of a journal record.
type EventRow struct {
	Seq     uint64 `gorm:"column:seq;primaryKey"`
	Ts      int64  `gorm:"column:ts;index"`
	Type    string `gorm:"column:type;size:64;index"`
	Payload []byte `gorm:"column:payload;type:jsonb"`
}

// TableName implements the gorm table naming hook.
func (EventRow) TableName() string { return "journal_events" }

// Writer mirrors journal records into postgres. It is best-effort by
// contract: the journal logs and drops archive failures, and the file
// stays the system of record.
type Writer struct {
	client *conn.Client
}

// NewWriter migrates the events table and returns the archiver.
func NewWriter(client *conn.Client) (*Writer, error) {
	if client == nil || client.DB() == nil {
		return nil, errors.New("archive: nil postgres client")
	}
	if err := client.DB().AutoMigrate(&EventRow{}); err != nil {
		return nil, errors.Wrap(err, "migrate journal_events")
	}
	return &Writer{client: client}, nil
}

// Archive inserts one record. Sequences already present are left alone, so
// overlap with a startup backfill cannot double-write.
func (w *Writer) Archive(rec eventlog.Record) error {
	row := newRow(rec)
	return w.client.DB().
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row).Error
}

// Backfill copies persisted records the archive has not seen yet, in
// sequence order and in batches. Run it on startup before live appends
// start flowing.
func (w *Writer) Backfill(l *eventlog.Log) (int, error) {
	db := w.client.DB()

	var last []EventRow
	if err := db.Order("seq desc").Limit(1).Find(&last).Error; err != nil {
		return 0, errors.Wrap(err, "load archive cursor")
	}
	var after uint64
	if len(last) == 1 {
		after = last[0].Seq
	}

	total := 0
	for {
		recs, err := l.Read(eventlog.ReadOptions{AfterSeq: after, Limit: backfillBatch})
		if err != nil {
			return total, errors.Wrap(err, "read journal")
		}
		if len(recs) == 0 {
			return total, nil
		}
		rows := make([]EventRow, 0, len(recs))
		for _, rec := range recs {
			rows = append(rows, newRow(rec))
		}
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error; err != nil {
			return total, errors.Wrap(err, "insert batch")
		}
		after = recs[len(recs)-1].Seq
		total += len(rows)
	}
}

func newRow(rec eventlog.Record) EventRow {
	return EventRow{
		Seq:     rec.Seq,
		Ts:      rec.Ts,
		Type:    rec.Type,
		Payload: []byte(rec.Payload),
	}
}
