package params_test

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/clubhub/internal/app/system/apperr"
	"github.com/dalemusser/clubhub/internal/app/system/params"
	"github.com/dalemusser/clubhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestObjectID(t *testing.T) {
	valid := primitive.NewObjectID()
	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{"valid", valid.Hex(), false},
		{"padded", "  " + valid.Hex() + " ", false},
		{"empty", "", true},
		{"garbage", "not-an-id", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := params.ObjectID(tt.in, "id")
			if tt.wantErr {
				if apperr.KindOf(err) != apperr.KindValidation {
					t.Errorf("got %v, want validation error", err)
				}
				return
			}
			if err != nil || id != valid {
				t.Errorf("got %v, %v", id, err)
			}
		})
	}

	if id, err := params.OptionalObjectID(" ", "club"); err != nil || !id.IsZero() {
		t.Errorf("optional empty: %v, %v", id, err)
	}
}

func TestPathID(t *testing.T) {
	id := primitive.NewObjectID()
	req := testutil.WithChiURLParam(httptest.NewRequest("GET", "/clubs/"+id.Hex(), nil), "id", id.Hex())
	got, err := params.PathID(req, "id")
	if err != nil || got != id {
		t.Errorf("PathID = %v, %v", got, err)
	}
}

func TestUserIDBody(t *testing.T) {
	id := primitive.NewObjectID()
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"userId":"` + id.Hex() + `"}`, false},
		{"missing", `{}`, true},
		{"malformed", `{"userId":`, true},
		{"empty body", ``, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/", strings.NewReader(tt.body))
			got, err := params.UserIDBody(httptest.NewRecorder(), req)
			if tt.wantErr {
				if apperr.KindOf(err) != apperr.KindValidation {
					t.Errorf("got %v, want validation error", err)
				}
				return
			}
			if err != nil || got != id {
				t.Errorf("got %v, %v", got, err)
			}
		})
	}
}
