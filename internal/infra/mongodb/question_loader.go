package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"trivia-session-engine/internal/domain"
)

// questionDocument is the stored shape of a question.
type questionDocument struct {
	ID       string   `bson:"_id"`
	Locale   string   `bson:"locale"`
	Level    int      `bson:"level"`
	Topic    string   `bson:"topic"`
	Prompt   string   `bson:"prompt"`
	Choices  []string `bson:"choices"`
	Correct  string   `bson:"correct"`
	MediaRef string   `bson:"media_ref,omitempty"`
	Status   string   `bson:"status,omitempty"`
}

// QuestionLoader loads question banks from a MongoDB collection.
type QuestionLoader struct {
	col *mongo.Collection
}

func NewQuestionLoader(db *mongo.Database) *QuestionLoader {
	return &QuestionLoader{col: db.Collection("questions")}
}

// Connect dials uri and verifies the connection with a ping.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// LoadQuestions skips documents marked deleted and those that do not carry four choices.
func (l *QuestionLoader) LoadQuestions(ctx context.Context, locale domain.Locale, level int) ([]domain.Question, error) {
	filter := bson.M{
		"locale": string(locale),
		"level":  level,
		"status": bson.M{"$ne": "deleted"},
	}
	cur, err := l.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find questions: %w", err)
	}
	defer cur.Close(ctx)

	var questions []domain.Question
	for cur.Next(ctx) {
		var doc questionDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode question: %w", err)
		}
		q, ok := doc.toDomain()
		if !ok {
			continue
		}
		questions = append(questions, q)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}
	return questions, nil
}

func (d questionDocument) toDomain() (domain.Question, bool) {
	if len(d.Choices) != len(domain.Options) {
		return domain.Question{}, false
	}
	correct, err := domain.ParseOption(d.Correct)
	if err != nil {
		return domain.Question{}, false
	}
	locale, err := domain.ParseLocale(d.Locale)
	if err != nil {
		return domain.Question{}, false
	}
	q := domain.Question{
		ID:       d.ID,
		Topic:    d.Topic,
		Level:    d.Level,
		Locale:   locale,
		Prompt:   d.Prompt,
		Correct:  correct,
		MediaRef: d.MediaRef,
	}
	copy(q.Choices[:], d.Choices)
	return q, true
}
