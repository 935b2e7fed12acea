package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JoeyLyman/yaycsa/pkg/enums"
	pkgerrors "github.com/JoeyLyman/yaycsa/pkg/errors"
)

type tierInput struct {
	Quantity  int `json:"quantity" validate:"gte=1"`
	CasePrice int `json:"casePrice" validate:"gte=0"`
}

type lineInput struct {
	Mode  *enums.PricingMode `json:"pricingMode,omitempty" validate:"omitempty,enum"`
	Tiers []tierInput        `json:"priceTiers" validate:"dive"`
}

func decode(t *testing.T, body string) (lineInput, *pkgerrors.Error) {
	t.Helper()
	var dest lineInput
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	err := DecodeJSONBody(httptest.NewRecorder(), req, &dest)
	if err == nil {
		return dest, nil
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
	return dest, typed
}

func TestDecodeJSONBodyAcceptsValidInput(t *testing.T) {
	got, err := decode(t, `{"pricingMode":"case","priceTiers":[{"quantity":12,"casePrice":4800}]}`)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if got.Mode == nil || *got.Mode != enums.PricingModeCase || got.Tiers[0].CasePrice != 4800 {
		t.Fatalf("unexpected decode %+v", got)
	}
}

func TestDecodeJSONBodyReportsNestedFieldPaths(t *testing.T) {
	_, err := decode(t, `{"priceTiers":[{"quantity":12,"casePrice":4800},{"quantity":0,"casePrice":100}]}`)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	details, _ := err.Details().(map[string]any)
	if _, ok := details["priceTiers[1].quantity"]; !ok {
		t.Fatalf("expected json path in details, got %v", details)
	}
}

func TestDecodeJSONBodyRejectsUnknownEnum(t *testing.T) {
	_, err := decode(t, `{"pricingMode":"bulk","priceTiers":[]}`)
	if err == nil {
		t.Fatalf("expected enum rejection")
	}
	details, _ := err.Details().(map[string]any)
	if _, ok := details["pricingMode"]; !ok {
		t.Fatalf("expected pricingMode detail, got %v", details)
	}
}

func TestDecodeJSONBodyRejectsMalformedBodies(t *testing.T) {
	for name, body := range map[string]string{
		"empty":         ``,
		"unknown field": `{"priceTiers":[],"discount":5}`,
		"trailing data": `{"priceTiers":[]} {"priceTiers":[]}`,
		"wrong type":    `{"priceTiers":"many"}`,
		"too large":     `{"priceTiers":[],"pricingMode":"` + strings.Repeat("x", MaxBodyBytes) + `"}`,
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := decode(t, body); err == nil {
				t.Fatalf("expected rejection")
			}
		})
	}
}
