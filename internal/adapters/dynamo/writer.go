// Package dynamo implements the store port on top of DynamoDB BatchWriteItem.
package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"

	"github.com/bft-labs/csvship/internal/domain"
	"github.com/bft-labs/csvship/internal/ports"
)

// MaxItemsPerCall is the most put requests BatchWriteItem accepts in one call.
const MaxItemsPerCall = 25

// Writer submits write requests with BatchWriteItem.
// It is safe for concurrent use as long as the underlying client is.
type Writer struct {
	client dynamodbiface.DynamoDBAPI
	logger ports.Logger
}

// NewWriter creates a writer using client.
func NewWriter(client dynamodbiface.DynamoDBAPI, logger ports.Logger) *Writer {
	return &Writer{client: client, logger: logger}
}

// BatchWrite implements ports.BatchWriter.
func (w *Writer) BatchWrite(ctx context.Context, req domain.WriteRequest) (domain.UnprocessedSet, error) {
	if req.Len() > MaxItemsPerCall {
		return nil, fmt.Errorf("batch of %d items exceeds BatchWriteItem limit of %d", req.Len(), MaxItemsPerCall)
	}

	input := &dynamodb.BatchWriteItemInput{
		RequestItems: encodeRequest(req),
	}
	out, err := w.client.BatchWriteItemWithContext(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("batch write item: %w", err)
	}

	unprocessed := decodeUnprocessed(out.UnprocessedItems, req)
	if !unprocessed.Empty() {
		w.logger.Debug("store returned unprocessed items",
			ports.Int("submitted", req.Len()),
			ports.Int("unprocessed", unprocessed.Len()),
		)
	}
	return unprocessed, nil
}

// encodeRequest converts domain items into PutRequests with string attributes.
func encodeRequest(req domain.WriteRequest) map[string][]*dynamodb.WriteRequest {
	items := make(map[string][]*dynamodb.WriteRequest, len(req))
	for table, puts := range req {
		wrs := make([]*dynamodb.WriteRequest, 0, len(puts))
		for _, p := range puts {
			wrs = append(wrs, &dynamodb.WriteRequest{
				PutRequest: &dynamodb.PutRequest{Item: encodeItem(p)},
			})
		}
		items[table] = wrs
	}
	return items
}

func encodeItem(item domain.WriteItem) map[string]*dynamodb.AttributeValue {
	av := make(map[string]*dynamodb.AttributeValue, len(item.Attributes))
	for k, v := range item.Attributes {
		av[k] = &dynamodb.AttributeValue{S: aws.String(v)}
	}
	return av
}

// decodeUnprocessed converts UnprocessedItems back into domain items.
// The store does not echo line numbers, so each returned item is matched to
// the submitted item with the same payload to recover them.
func decodeUnprocessed(unprocessed map[string][]*dynamodb.WriteRequest, submitted domain.WriteRequest) domain.UnprocessedSet {
	out := make(domain.UnprocessedSet, len(unprocessed))
	for table, wrs := range unprocessed {
		pending := make(map[string][]int)
		for _, item := range submitted[table] {
			fp := item.Fingerprint()
			pending[fp] = append(pending[fp], item.Line)
		}

		items := make([]domain.WriteItem, 0, len(wrs))
		for _, wr := range wrs {
			if wr == nil || wr.PutRequest == nil {
				continue
			}
			item := decodeItem(wr.PutRequest.Item)
			fp := item.Fingerprint()
			if lines := pending[fp]; len(lines) > 0 {
				item.Line = lines[0]
				pending[fp] = lines[1:]
			}
			items = append(items, item)
		}
		if len(items) > 0 {
			out[table] = items
		}
	}
	return out
}

func decodeItem(av map[string]*dynamodb.AttributeValue) domain.WriteItem {
	attrs := make(map[string]string, len(av))
	for k, v := range av {
		if v != nil && v.S != nil {
			attrs[k] = aws.StringValue(v.S)
		}
	}
	return domain.WriteItem{Attributes: attrs}
}
