package cart

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"storefront/internal/domain"
)

// CollectionName is the Mongo collection holding cart documents.
const CollectionName = "carritos"

var (
	_ Repository = (*Mongo)(nil)
	_ Sweeper    = (*Mongo)(nil)
)

type cartDocument struct {
	ID          string         `bson:"_id"`
	SessionKey  *string        `bson:"sessionId,omitempty"`
	UserKey     *int64         `bson:"usuarioId,omitempty"`
	Items       []lineDocument `bson:"items"`
	Total       float64        `bson:"total"`
	LastUpdated time.Time      `bson:"ultimaActualizacion"`
	Version     int64          `bson:"version"`
}

type lineDocument struct {
	ProductID string  `bson:"productoId"`
	Label     string  `bson:"nombre"`
	Quantity  int     `bson:"cantidad"`
	UnitPrice float64 `bson:"precio"`
	Options   string  `bson:"opciones,omitempty"`
}

// Mongo stores each cart as a single document. It has no multi-document
// transactions, so it does not implement Merger.
type Mongo struct {
	coll *mongo.Collection
}

func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{coll: db.Collection(CollectionName)}
}

// EnsureIndexes creates the unique owner indexes and the staleness index.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	_, err := m.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "sessionId", Value: 1}},
			Options: options.Index().
				SetName("carritos_session_uidx").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"sessionId": bson.M{"$exists": true}}),
		},
		{
			Keys: bson.D{{Key: "usuarioId", Value: 1}},
			Options: options.Index().
				SetName("carritos_user_uidx").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"usuarioId": bson.M{"$exists": true}}),
		},
		{
			Keys:    bson.D{{Key: "ultimaActualizacion", Value: 1}},
			Options: options.Index().SetName("carritos_last_updated_idx"),
		},
	})
	return err
}

func (m *Mongo) FindByID(ctx context.Context, id string) (*domain.Cart, error) {
	return m.findOne(ctx, bson.M{"_id": id})
}

func (m *Mongo) FindBySessionKey(ctx context.Context, sessionKey string) (*domain.Cart, error) {
	return m.findOne(ctx, bson.M{"sessionId": sessionKey})
}

func (m *Mongo) FindByUserKey(ctx context.Context, userKey int64) (*domain.Cart, error) {
	return m.findOne(ctx, bson.M{"usuarioId": userKey})
}

func (m *Mongo) Save(ctx context.Context, cart *domain.Cart) (*domain.Cart, error) {
	out := cart.Clone()
	if out.Version == 0 {
		if out.ID == "" {
			out.ID = uuid.NewString()
		}
		out.Version = 1
		if _, err := m.coll.InsertOne(ctx, toDocument(out)); err != nil {
			return nil, translateMongoErr(err)
		}
		return out, nil
	}

	expected := out.Version
	out.Version++
	res, err := m.coll.ReplaceOne(ctx, bson.M{"_id": out.ID, "version": expected}, toDocument(out))
	if err != nil {
		return nil, translateMongoErr(err)
	}
	if res.MatchedCount == 0 {
		return nil, m.missingOrConflict(ctx, out.ID, domain.ErrNotFound)
	}
	return out, nil
}

func (m *Mongo) Delete(ctx context.Context, cart *domain.Cart) error {
	if cart.ID == "" {
		return nil
	}
	filter := bson.M{"_id": cart.ID}
	if cart.Version != 0 {
		filter["version"] = cart.Version
	}
	res, err := m.coll.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return m.missingOrConflict(ctx, cart.ID, nil)
	}
	return nil
}

func (m *Mongo) DeleteStale(ctx context.Context, before time.Time) (int64, error) {
	res, err := m.coll.DeleteMany(ctx, bson.M{"ultimaActualizacion": bson.M{"$lt": before}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (m *Mongo) findOne(ctx context.Context, filter bson.M) (*domain.Cart, error) {
	var doc cartDocument
	if err := m.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return fromDocument(doc), nil
}

func (m *Mongo) missingOrConflict(ctx context.Context, id string, ifMissing error) error {
	n, err := m.coll.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if n == 0 {
		return ifMissing
	}
	return domain.ErrConflict
}

func toDocument(c *domain.Cart) cartDocument {
	doc := cartDocument{
		ID:          c.ID,
		SessionKey:  c.SessionKey,
		UserKey:     c.UserKey,
		Items:       make([]lineDocument, 0, len(c.Items)),
		Total:       c.Total,
		LastUpdated: c.LastUpdated.UTC(),
		Version:     c.Version,
	}
	for _, it := range c.Items {
		doc.Items = append(doc.Items, lineDocument(it))
	}
	return doc
}

func fromDocument(doc cartDocument) *domain.Cart {
	c := &domain.Cart{
		ID:          doc.ID,
		SessionKey:  doc.SessionKey,
		UserKey:     doc.UserKey,
		Items:       make([]domain.LineItem, 0, len(doc.Items)),
		Total:       doc.Total,
		LastUpdated: doc.LastUpdated,
		Version:     doc.Version,
	}
	for _, it := range doc.Items {
		c.Items = append(c.Items, domain.LineItem(it))
	}
	return c
}

func translateMongoErr(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrAlreadyExists
	}
	return err
}
