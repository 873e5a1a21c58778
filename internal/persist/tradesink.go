package persist

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/ndrandal/feed-simulator/go-feed/internal/appender"
)

// tradeRecord is the wire shape one trade takes while it sits inside the
// appender's queued byte blocks: Append only moves bytes, so each trade is
// framed as one JSON object per block and decoded back on the consumer side.
type tradeRecord struct {
	MatchNumber  uint64    `json:"match_number"`
	SymbolLocate uint16    `json:"symbol_locate"`
	Ticker       string    `json:"ticker"`
	Price        float64   `json:"price"`
	Shares       int32     `json:"shares"`
	Aggressor    string    `json:"aggressor"`
	ExecutedAt   time.Time `json:"executed_at"`
}

// EncodeTrade frames one trade as an appender block: the JSON encoding of a
// tradeRecord, ready for Appender.Append.
func EncodeTrade(matchNumber uint64, locate uint16, ticker string, price float64, shares int32, aggressor byte) []byte {
	rec := tradeRecord{
		MatchNumber:  matchNumber,
		SymbolLocate: locate,
		Ticker:       ticker,
		Price:        price,
		Shares:       shares,
		Aggressor:    string(aggressor),
		ExecutedAt:   time.Now(),
	}
	buf, err := json.Marshal(rec)
	if err != nil {
		// A tradeRecord is always marshalable; this would be a programming
		// error, not a runtime one. Fall back to an empty block rather than
		// panicking the producer goroutine.
		return nil
	}
	return buf
}

// MongoTradeSink is an appender.Sink that batches trade documents and
// inserts them with a single InsertMany per drain cycle, the Go analogue of
// spec §3.C's mongoTradeSink: the consumer goroutine that an Appender hands
// a working buffer to outside the mailbox lock.
type MongoTradeSink struct {
	store *Store
}

// NewMongoTradeSink returns a Sink that writes decoded trade blocks to
// store's "trades" collection.
func NewMongoTradeSink(store *Store) *MongoTradeSink {
	return &MongoTradeSink{store: store}
}

// ConsumeAppendBuffer decodes every block in the drained batch and inserts
// them in one round-trip. A block that fails to decode is dropped and
// logged rather than failing the whole batch — appender failures are
// out-of-band per spec §4.C/§7, so it is this sink's job to record them.
func (m *MongoTradeSink) ConsumeAppendBuffer(ctx context.Context, blocks [][]byte) {
	docs := make([]any, 0, len(blocks))
	for _, b := range blocks {
		if len(b) == 0 {
			continue // an Append of zero bytes carries no trade
		}
		var rec tradeRecord
		if err := json.Unmarshal(b, &rec); err != nil {
			log.Printf("persist: mongoTradeSink: dropping malformed trade block: %v", err)
			continue
		}
		docs = append(docs, bson.M{
			"match_number":  int64(rec.MatchNumber),
			"symbol_locate": rec.SymbolLocate,
			"ticker":        rec.Ticker,
			"price":         rec.Price,
			"shares":        rec.Shares,
			"aggressor":     rec.Aggressor,
			"executed_at":   rec.ExecutedAt,
		})
	}
	if len(docs) == 0 {
		return
	}

	// Unordered so one duplicate match_number (a trade re-delivered across a
	// retried drain) doesn't block the rest of the batch; duplicates are
	// idempotent, same as the old single-insert path this replaces.
	_, err := m.store.db.Collection("trades").InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		log.Printf("persist: mongoTradeSink: InsertMany failed for %d trades: %v", len(docs), err)
	}
}

// NewTradeAppender builds the Appender that fronts MongoTradeSink, dispatched
// via dispatch (typically workerpool.Pool.Go).
func NewTradeAppender(store *Store, dispatch appender.Dispatcher) *appender.Appender {
	return appender.New(NewMongoTradeSink(store), dispatch)
}
