package entities

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/ngsiadmin/internal/client/api"
	"github.com/iudanet/ngsiadmin/internal/logging"
	"github.com/iudanet/ngsiadmin/internal/validation"
	"github.com/iudanet/ngsiadmin/pkg/ngsi"
)

// makePage собирает JSON страницу из n сущностей, начиная с номера start
func makePage(t *testing.T, start, n int) []byte {
	t.Helper()
	page := make([]ngsi.Entity, 0, n)
	for i := start; i < start+n; i++ {
		page = append(page, ngsi.Entity{
			"id":   fmt.Sprintf("urn:ngsi:Sensor:%d", i),
			"type": "Sensor",
			"value": map[string]any{
				"type":  "Number",
				"value": i,
			},
		})
	}
	data, err := json.Marshal(page)
	require.NoError(t, err)
	return data
}

func offsetOf(t *testing.T, params url.Values) int {
	t.Helper()
	offset, err := strconv.Atoi(params.Get("offset"))
	require.NoError(t, err)
	return offset
}

func TestNewService(t *testing.T) {
	mockAPI := &api.ClientAPIMock{}
	logger := logging.Discard()

	service := NewService(mockAPI, logger)

	assert.NotNil(t, service)
	assert.Equal(t, mockAPI, service.apiClient)
	assert.Equal(t, logger, service.logger)
}

func TestPageCursor_Advance(t *testing.T) {
	cursor := NewPageCursor()
	assert.Equal(t, PageLimit, cursor.Limit)

	assert.Equal(t, 0, cursor.Advance())
	assert.Equal(t, 1000, cursor.Offset)
	assert.Equal(t, 1000, cursor.Advance())
	assert.Equal(t, 2000, cursor.Advance())
	assert.Equal(t, 3000, cursor.Offset)
}

func TestGetAllEntities_PaginationTermination(t *testing.T) {
	for _, k := range []int{0, 1, 3} {
		t.Run(fmt.Sprintf("%d full pages", k), func(t *testing.T) {
			mockAPI := &api.ClientAPIMock{
				GetFunc: func(ctx context.Context, path string, params url.Values) (*api.Response, error) {
					offset := offsetOf(t, params)
					if offset >= k*PageLimit {
						return &api.Response{StatusCode: http.StatusOK, Body: []byte("[]")}, nil
					}
					return &api.Response{StatusCode: http.StatusOK, Body: makePage(t, offset, PageLimit)}, nil
				},
			}
			service := NewService(mockAPI, logging.Discard())

			entities, cursor := service.fetchPages(context.Background(), Filter{})

			assert.Len(t, entities, k*PageLimit)
			calls := mockAPI.GetCalls()
			require.Len(t, calls, k+1)
			for i, call := range calls {
				assert.Equal(t, "/entities", call.Path)
				assert.Equal(t, strconv.Itoa(i*PageLimit), call.Params.Get("offset"))
				assert.Equal(t, "1000", call.Params.Get("limit"))
			}
			// курсор сдвигается до разбора ответа, включая последнюю пустую страницу
			assert.Equal(t, PageLimit*(k+1), cursor.Offset)

			seen := make(map[string]struct{}, len(entities))
			for _, e := range entities {
				id, ok := e.ID()
				require.True(t, ok)
				seen[id] = struct{}{}
			}
			assert.Len(t, seen, len(entities), "ids must be unique")
		})
	}
}

func TestGetAllEntities_RetainedParamsKeepOffsets(t *testing.T) {
	var retained []url.Values
	mockAPI := &api.ClientAPIMock{
		GetFunc: func(ctx context.Context, path string, params url.Values) (*api.Response, error) {
			retained = append(retained, params)
			offset := offsetOf(t, params)
			if offset >= 2*PageLimit {
				return &api.Response{StatusCode: http.StatusOK, Body: []byte("[]")}, nil
			}
			return &api.Response{StatusCode: http.StatusOK, Body: makePage(t, offset, PageLimit)}, nil
		},
	}
	service := NewService(mockAPI, logging.Discard())

	entities := service.GetAllEntities(context.Background(), Filter{Type: "Sensor"})

	assert.Len(t, entities, 2*PageLimit)
	// параметры, сохраненные получателем, не переписываются следующими страницами
	require.Len(t, retained, 3)
	for i, params := range retained {
		assert.Equal(t, strconv.Itoa(i*PageLimit), params.Get("offset"))
		assert.Equal(t, "Sensor", params.Get("type"))
	}

	retained[0].Set("type", "Other")
	assert.Equal(t, "Sensor", retained[1].Get("type"))
}

func TestGetAllEntities_Filters(t *testing.T) {
	mockAPI := &api.ClientAPIMock{
		GetFunc: func(ctx context.Context, path string, params url.Values) (*api.Response, error) {
			return &api.Response{StatusCode: http.StatusOK, Body: []byte("[]")}, nil
		},
	}
	service := NewService(mockAPI, logging.Discard())

	_ = service.GetAllEntities(context.Background(), Filter{
		Type:  "AirQualityObserved",
		Attrs: []string{"NO2", "dateObserved"},
	})

	calls := mockAPI.GetCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "AirQualityObserved", calls[0].Params.Get("type"))
	assert.Equal(t, "NO2,dateObserved", calls[0].Params.Get("attrs"))

	mockAPI.GetFunc = func(ctx context.Context, path string, params url.Values) (*api.Response, error) {
		_, hasType := params["type"]
		_, hasAttrs := params["attrs"]
		assert.False(t, hasType)
		assert.False(t, hasAttrs)
		return &api.Response{StatusCode: http.StatusOK, Body: []byte("[]")}, nil
	}
	_ = service.GetAllEntities(context.Background(), Filter{})
}

func TestGetAllEntities_PartialFetchOnError(t *testing.T) {
	tests := []struct {
		name    string
		failure func() (*api.Response, error)
	}{
		{
			name: "transport error",
			failure: func() (*api.Response, error) {
				return nil, errors.New("connection refused")
			},
		},
		{
			name: "status error",
			failure: func() (*api.Response, error) {
				return nil, &api.StatusError{StatusCode: http.StatusInternalServerError, Body: []byte("boom")}
			},
		},
		{
			name: "non-array response",
			failure: func() (*api.Response, error) {
				return &api.Response{StatusCode: http.StatusOK, Body: []byte(`{"error":"unexpected"}`)}, nil
			},
		},
		{
			name: "invalid json",
			failure: func() (*api.Response, error) {
				return &api.Response{StatusCode: http.StatusOK, Body: []byte(`not json`)}, nil
			},
		},
	}

	// страница j=3 (1-based) завершается ошибкой
	const failingPage = 3

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockAPI := &api.ClientAPIMock{
				GetFunc: func(ctx context.Context, path string, params url.Values) (*api.Response, error) {
					offset := offsetOf(t, params)
					if offset/PageLimit+1 == failingPage {
						return tt.failure()
					}
					return &api.Response{StatusCode: http.StatusOK, Body: makePage(t, offset, PageLimit)}, nil
				},
			}
			service := NewService(mockAPI, logging.Discard())

			entities := service.GetAllEntities(context.Background(), Filter{})

			assert.Len(t, entities, (failingPage-1)*PageLimit)
			assert.Len(t, mockAPI.GetCalls(), failingPage, "no request after the failing page")
		})
	}
}

func TestDeleteAllEntities_Projection(t *testing.T) {
	mockAPI := &api.ClientAPIMock{
		GetFunc: func(ctx context.Context, path string, params url.Values) (*api.Response, error) {
			assert.Equal(t, "T", params.Get("type"))
			_, hasAttrs := params["attrs"]
			assert.False(t, hasAttrs)
			if params.Get("offset") != "0" {
				return &api.Response{StatusCode: http.StatusOK, Body: []byte("[]")}, nil
			}
			body := `[
				{"id":"a","type":"T","temperature":{"type":"Number","value":1}},
				{"id":"b","type":"T","temperature":{"type":"Number","value":2}}
			]`
			return &api.Response{StatusCode: http.StatusOK, Body: []byte(body)}, nil
		},
		PostFunc: func(ctx context.Context, path string, params url.Values, body any) (*api.Response, error) {
			return &api.Response{StatusCode: http.StatusNoContent}, nil
		},
	}
	service := NewService(mockAPI, logging.Discard())

	resp, err := service.DeleteAllEntities(context.Background(), "T")

	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	posts := mockAPI.PostCalls()
	require.Len(t, posts, 1)
	assert.Equal(t, "/op/update", posts[0].Path)
	assert.Empty(t, posts[0].Params)

	data, err := json.Marshal(posts[0].Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"actionType":"delete","entities":[{"id":"a"},{"id":"b"}]}`, string(data))
}

func TestDeleteAllEntities_SkipsEntitiesWithoutID(t *testing.T) {
	mockAPI := &api.ClientAPIMock{
		GetFunc: func(ctx context.Context, path string, params url.Values) (*api.Response, error) {
			if params.Get("offset") != "0" {
				return &api.Response{StatusCode: http.StatusOK, Body: []byte("[]")}, nil
			}
			return &api.Response{StatusCode: http.StatusOK, Body: []byte(`[{"id":"a"},{"type":"T"}]`)}, nil
		},
		PostFunc: func(ctx context.Context, path string, params url.Values, body any) (*api.Response, error) {
			return &api.Response{StatusCode: http.StatusNoContent}, nil
		},
	}
	service := NewService(mockAPI, logging.Discard())

	_, err := service.DeleteAllEntities(context.Background(), "")
	require.NoError(t, err)

	op, ok := mockAPI.PostCalls()[0].Body.(ngsi.BatchOperation)
	require.True(t, ok)
	assert.Equal(t, []ngsi.Entity{{"id": "a"}}, op.Entities)
}

func TestDeleteAllEntities_Empty(t *testing.T) {
	mockAPI := &api.ClientAPIMock{
		GetFunc: func(ctx context.Context, path string, params url.Values) (*api.Response, error) {
			return &api.Response{StatusCode: http.StatusOK, Body: []byte("[]")}, nil
		},
		PostFunc: func(ctx context.Context, path string, params url.Values, body any) (*api.Response, error) {
			return &api.Response{StatusCode: http.StatusNoContent}, nil
		},
	}
	service := NewService(mockAPI, logging.Discard())

	_, err := service.DeleteAllEntities(context.Background(), "T")
	require.NoError(t, err)

	data, err := json.Marshal(mockAPI.PostCalls()[0].Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"actionType":"delete","entities":[]}`, string(data))
}

func TestBatchOperations(t *testing.T) {
	entities := []ngsi.Entity{
		{"id": "a", "type": "T", "value": map[string]any{"type": "Number", "value": "1"}},
	}

	tests := []struct {
		name       string
		call       func(s *Service) (*api.Response, error)
		wantAction ngsi.ActionType
		keyValues  bool
	}{
		{
			name: "upload",
			call: func(s *Service) (*api.Response, error) {
				return s.UploadEntities(context.Background(), entities, false)
			},
			wantAction: ngsi.ActionAppendStrict,
		},
		{
			name: "upload keyValues",
			call: func(s *Service) (*api.Response, error) {
				return s.UploadEntities(context.Background(), entities, true)
			},
			wantAction: ngsi.ActionAppendStrict,
			keyValues:  true,
		},
		{
			name: "update",
			call: func(s *Service) (*api.Response, error) {
				return s.UpdateEntities(context.Background(), entities, false)
			},
			wantAction: ngsi.ActionUpdate,
		},
		{
			name: "update keyValues",
			call: func(s *Service) (*api.Response, error) {
				return s.UpdateEntities(context.Background(), entities, true)
			},
			wantAction: ngsi.ActionUpdate,
			keyValues:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockAPI := &api.ClientAPIMock{
				PostFunc: func(ctx context.Context, path string, params url.Values, body any) (*api.Response, error) {
					return &api.Response{StatusCode: http.StatusNoContent}, nil
				},
			}
			service := NewService(mockAPI, logging.Discard())

			_, err := tt.call(service)
			require.NoError(t, err)

			posts := mockAPI.PostCalls()
			require.Len(t, posts, 1)
			op, ok := posts[0].Body.(ngsi.BatchOperation)
			require.True(t, ok)
			assert.Equal(t, tt.wantAction, op.ActionType)
			assert.Equal(t, entities, op.Entities)

			if tt.keyValues {
				assert.Equal(t, "keyValues", posts[0].Params.Get("options"))
			} else {
				assert.Empty(t, posts[0].Params)
			}
		})
	}
}

func TestBatch_MissingIDRejected(t *testing.T) {
	mockAPI := &api.ClientAPIMock{}
	service := NewService(mockAPI, logging.Discard())

	resp, err := service.UploadEntities(context.Background(), []ngsi.Entity{{"type": "T"}}, false)

	require.Error(t, err)
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, validation.ErrMissingID)
	assert.Empty(t, mockAPI.PostCalls(), "no request must be sent")
}

func TestBatch_Failure(t *testing.T) {
	mockAPI := &api.ClientAPIMock{
		PostFunc: func(ctx context.Context, path string, params url.Values, body any) (*api.Response, error) {
			return nil, &api.StatusError{StatusCode: http.StatusUnprocessableEntity, Message: "Unprocessable: Already Exists"}
		},
	}
	service := NewService(mockAPI, logging.Discard())

	resp, err := service.UploadEntities(context.Background(), []ngsi.Entity{{"id": "a"}}, false)

	require.Error(t, err)
	assert.Nil(t, resp)
	assert.Contains(t, err.Error(), "append_strict batch failed")

	var statusErr *api.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnprocessableEntity, statusErr.StatusCode)
}

// TestBatch_KeyValuesEndpoint проверяет итоговый URL через реальный HTTP клиент
func TestBatch_KeyValuesEndpoint(t *testing.T) {
	var requested []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = append(requested, r.URL.RequestURI())
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	service := NewService(api.NewClient(server.URL+"/v2", "token"), logging.Discard())
	entities := []ngsi.Entity{{"id": "a", "type": "T", "value": 1}}

	_, err := service.UploadEntities(context.Background(), entities, true)
	require.NoError(t, err)
	_, err = service.UploadEntities(context.Background(), entities, false)
	require.NoError(t, err)

	assert.Equal(t, []string{"/v2/op/update?options=keyValues", "/v2/op/update"}, requested)
}

func TestQueryEntity(t *testing.T) {
	tests := []struct {
		name          string
		body          string
		attr          string
		wantValue     string
		wantTimestamp *time.Time
		wantErr       error
	}{
		{
			name: "value with timestamp",
			body: `{"id":"urn:1","type":"Sensor",
				"temperature":{"type":"Text","value":"21.5","metadata":{}},
				"TimeInstant":{"type":"DateTime","value":"2024-03-01T10:15:00.000+02:00"}}`,
			attr:          "temperature",
			wantValue:     "21.5",
			wantTimestamp: ptrTime(time.Date(2024, 3, 1, 8, 15, 0, 0, time.UTC)),
		},
		{
			name:      "numeric value without timestamp",
			body:      `{"id":"urn:1","type":"Sensor","temperature":{"type":"Number","value":21.5}}`,
			attr:      "temperature",
			wantValue: "21.5",
		},
		{
			name: "timestamp parse failure",
			body: `{"id":"urn:1","type":"Sensor",
				"temperature":{"type":"Number","value":"7"},
				"TimeInstant":{"type":"DateTime","value":"not-a-date"}}`,
			attr:      "temperature",
			wantValue: "7",
		},
		{
			name:    "missing attribute",
			body:    `{"id":"urn:1","type":"Sensor"}`,
			attr:    "temperature",
			wantErr: ErrMissingField,
		},
		{
			name:    "missing value field",
			body:    `{"id":"urn:1","type":"Sensor","temperature":{"type":"Number"}}`,
			attr:    "temperature",
			wantErr: ErrMissingField,
		},
		{
			name:    "malformed response",
			body:    `[1,2,3]`,
			attr:    "temperature",
			wantErr: ErrMalformedResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockAPI := &api.ClientAPIMock{
				GetFunc: func(ctx context.Context, path string, params url.Values) (*api.Response, error) {
					assert.Equal(t, "/entities/urn:1", path)
					assert.Empty(t, params)
					return &api.Response{StatusCode: http.StatusOK, Body: []byte(tt.body)}, nil
				},
			}
			service := NewService(mockAPI, logging.Discard())

			result, err := service.QueryEntity(context.Background(), MeasurementRequest{URN: "urn:1", Name: tt.attr})

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, result)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, result)
			assert.Equal(t, "urn:1", result.URN)
			assert.Equal(t, tt.attr, result.Name)
			assert.Equal(t, tt.wantValue, result.Value)
			if tt.wantTimestamp == nil {
				assert.Nil(t, result.Timestamp)
			} else {
				require.NotNil(t, result.Timestamp)
				assert.True(t, tt.wantTimestamp.Equal(*result.Timestamp))
				assert.Equal(t, time.UTC, result.Timestamp.Location())
			}
		})
	}
}

func TestQueryEntity_TransportError(t *testing.T) {
	mockAPI := &api.ClientAPIMock{
		GetFunc: func(ctx context.Context, path string, params url.Values) (*api.Response, error) {
			return nil, &api.StatusError{StatusCode: http.StatusNotFound, Message: "NotFound"}
		},
	}
	service := NewService(mockAPI, logging.Discard())

	result, err := service.QueryEntity(context.Background(), MeasurementRequest{URN: "urn:missing", Name: "temperature"})

	require.Error(t, err)
	assert.Nil(t, result)
	assert.NotErrorIs(t, err, ErrMissingField)
}

func TestQueryEntity_EscapesURN(t *testing.T) {
	mockAPI := &api.ClientAPIMock{
		GetFunc: func(ctx context.Context, path string, params url.Values) (*api.Response, error) {
			assert.Equal(t, "/entities/room%2F1", path)
			return &api.Response{StatusCode: http.StatusOK, Body: []byte(`{"id":"room/1","t":{"value":"1"}}`)}, nil
		},
	}
	service := NewService(mockAPI, logging.Discard())

	result, err := service.QueryEntity(context.Background(), MeasurementRequest{URN: "room/1", Name: "t"})
	require.NoError(t, err)
	assert.Equal(t, "1", result.Value)
}

func TestQueryEntity_InvalidRequest(t *testing.T) {
	service := NewService(&api.ClientAPIMock{}, logging.Discard())

	_, err := service.QueryEntity(context.Background(), MeasurementRequest{Name: "t"})
	assert.ErrorIs(t, err, validation.ErrEmptyURN)
}

func ptrTime(t time.Time) *time.Time {
	return &t
}
