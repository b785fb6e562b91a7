package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"brickwatch/legodealworker/internal/catalog"
	"brickwatch/legodealworker/logger"
	apperrors "brickwatch/legodealworker/pkg/errors"
)

const (
	dealCollection = "deals"
	saleCollection = "sales"

	connectTimeout = 10 * time.Second
)

// MongoStore implements Store backed by MongoDB
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
	log    *logger.Logger
}

// Ensure MongoStore implements Store
var _ Store = (*MongoStore)(nil)

// NewMongoStore connects to MongoDB and verifies the connection
func NewMongoStore(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, apperrors.NewStore("mongodb", "connect failed", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, apperrors.NewStore("mongodb", "ping failed", err)
	}

	return &MongoStore{
		client: client,
		db:     client.Database(dbName),
		log:    logger.ForStore(),
	}, nil
}

// UpsertDeals writes deals keyed by (id, source)
func (s *MongoStore) UpsertDeals(ctx context.Context, deals []catalog.Deal) (int, error) {
	coll := s.db.Collection(dealCollection)

	count := 0
	for _, deal := range deals {
		filter := bson.M{"id": deal.ID, "source": deal.Source}
		res, err := coll.ReplaceOne(ctx, filter, deal, options.Replace().SetUpsert(true))
		if err != nil {
			return count, apperrors.NewStore("mongodb", "deal upsert failed", err)
		}
		count += int(res.ModifiedCount + res.UpsertedCount)
	}

	s.log.Debug().Int("written", count).Int("total", len(deals)).Msg("Upserted deals")
	return count, nil
}

// InsertSales appends a fresh sale snapshot
func (s *MongoStore) InsertSales(ctx context.Context, sales []catalog.Sale) (int, error) {
	if len(sales) == 0 {
		return 0, nil
	}

	docs := make([]interface{}, len(sales))
	for i, sale := range sales {
		docs[i] = sale
	}

	res, err := s.db.Collection(saleCollection).InsertMany(ctx, docs)
	if err != nil {
		return 0, apperrors.NewStore("mongodb", "sale insert failed", err)
	}

	s.log.Debug().Int("inserted", len(res.InsertedIDs)).Msg("Inserted sales")
	return len(res.InsertedIDs), nil
}

// FindDeals returns the deals matching a query
func (s *MongoStore) FindDeals(ctx context.Context, q DealQuery) ([]catalog.Deal, error) {
	opts := options.Find()
	if q.SortField != "" {
		direction := -1
		if q.SortAsc {
			direction = 1
		}
		opts.SetSort(bson.D{{Key: q.SortField, Value: direction}})
	}
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}
	if q.Skip > 0 {
		opts.SetSkip(q.Skip)
	}

	cursor, err := s.db.Collection(dealCollection).Find(ctx, dealFilter(q), opts)
	if err != nil {
		return nil, apperrors.NewStore("mongodb", "deal find failed", err)
	}

	var deals []catalog.Deal
	if err := cursor.All(ctx, &deals); err != nil {
		return nil, apperrors.NewStore("mongodb", "deal decode failed", err)
	}
	return deals, nil
}

// CountDeals returns the number of deals matching a query's filters
func (s *MongoStore) CountDeals(ctx context.Context, q DealQuery) (int64, error) {
	count, err := s.db.Collection(dealCollection).CountDocuments(ctx, dealFilter(q))
	if err != nil {
		return 0, apperrors.NewStore("mongodb", "deal count failed", err)
	}
	return count, nil
}

// FindSales returns the sales observed for a set id
func (s *MongoStore) FindSales(ctx context.Context, setID string, limit int64) ([]catalog.Sale, error) {
	opts := options.Find().SetSort(bson.D{{Key: "publishedAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := s.db.Collection(saleCollection).Find(ctx, bson.M{"legoSetId": setID}, opts)
	if err != nil {
		return nil, apperrors.NewStore("mongodb", "sale find failed", err)
	}

	var sales []catalog.Sale
	if err := cursor.All(ctx, &sales); err != nil {
		return nil, apperrors.NewStore("mongodb", "sale decode failed", err)
	}
	return sales, nil
}

// Close disconnects from MongoDB
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// dealFilter builds the equality/range filter document for a query
func dealFilter(q DealQuery) bson.M {
	filter := bson.M{}
	if q.MaxPrice != nil {
		filter["price"] = bson.M{"$lte": *q.MaxPrice}
	}
	if q.PublishedAfter != nil {
		filter["publishedAt"] = bson.M{"$gte": *q.PublishedAfter}
	}
	return filter
}
