package api

import "encoding/json"

// EncodeRequest serializes req to its wire form. Failures are reported as
// ErrSerialization.
func EncodeRequest[T any](req *GenerateContentRequest[T]) ([]byte, error) {
	data, err := json.Marshal(req)
	if err != nil {
		if apiErr, ok := AsAPIError(err); ok {
			return nil, apiErr
		}
		return nil, NewSerializationError(err)
	}
	return data, nil
}

// DecodeResponse parses a response body. Any failure, including a single
// candidate text that does not decode into T, is reported as
// ErrDeserialization and no partial response is returned.
func DecodeResponse[T any](data []byte) (*GenerateContentResponse[T], error) {
	var resp GenerateContentResponse[T]
	if err := json.Unmarshal(data, &resp); err != nil {
		if apiErr, ok := AsAPIError(err); ok {
			return nil, apiErr
		}
		return nil, NewDeserializationError(err)
	}
	return &resp, nil
}
