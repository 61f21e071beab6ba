// Package trigger models the inbound object-created notification that starts
// an import invocation, and the queue consumer that delivers such
// notifications to a handler.
package trigger

import (
	"net/url"

	gojson "github.com/goccy/go-json"

	"github.com/dataloom-io/sheetsink/pkg/errors"
)

// Event is an S3 object-created notification envelope. A single envelope may
// carry several records; only the first is processed, matching the one
// invocation per object contract.
type Event struct {
	Records []Record `json:"Records"`
}

// Record is one notification record within an Event.
type Record struct {
	EventName string `json:"eventName"`
	S3        Entity `json:"s3"`
}

// Entity carries the bucket and object the notification refers to.
type Entity struct {
	Bucket Bucket `json:"bucket"`
	Object Object `json:"object"`
}

// Bucket identifies the source bucket.
type Bucket struct {
	Name string `json:"name"`
}

// Object identifies the created object. Key is percent-encoded with '+'
// standing for space, as delivered by the notification service.
type Object struct {
	Key  string `json:"key"`
	Size int64  `json:"size"`
}

// ObjectRef is a resolved bucket/key pair with the key fully decoded.
type ObjectRef struct {
	Bucket string
	Key    string
}

// ParseEvent decodes a notification payload.
func ParseEvent(data []byte) (*Event, error) {
	var event Event
	if err := gojson.Unmarshal(data, &event); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeTrigger, "failed to parse trigger event")
	}
	return &event, nil
}

// First returns the bucket and decoded object key of the first record.
// Records beyond the first are ignored. It fails when the envelope has no
// records or the first record is missing its bucket or key.
func (e *Event) First() (ObjectRef, error) {
	if e == nil || len(e.Records) == 0 {
		return ObjectRef{}, errors.New(errors.ErrorTypeTrigger, "event contains no records")
	}

	record := e.Records[0]
	if record.S3.Bucket.Name == "" || record.S3.Object.Key == "" {
		return ObjectRef{}, errors.New(errors.ErrorTypeTrigger, "event record is missing bucket name or object key")
	}

	key, err := decodeKey(record.S3.Object.Key)
	if err != nil {
		return ObjectRef{}, errors.Wrap(err, errors.ErrorTypeTrigger, "failed to decode object key")
	}

	return ObjectRef{
		Bucket: record.S3.Bucket.Name,
		Key:    key,
	}, nil
}

// decodeKey reverses the notification key encoding: '+' becomes space, then
// percent-escapes are decoded. url.QueryUnescape applies exactly these two
// steps in that order.
func decodeKey(raw string) (string, error) {
	return url.QueryUnescape(raw)
}
