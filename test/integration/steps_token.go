package integration

import (
	"fmt"
	"net/http"
	"time"

	"github.com/cucumber/godog"
	"github.com/golang-jwt/jwt/v5"

	"github.com/doodlesbykumbi/registrar/pkg/identity"
	"github.com/doodlesbykumbi/registrar/pkg/token"
)

func (s *StepsContext) registerTokenSteps(sc *godog.ScenarioContext) {
	sc.Step(`^I hold a token for "([^"]*)" as "([^"]*)" that expired (\d+) minutes ago$`, s.iHoldAnExpiredToken)
	sc.Step(`^I hold a token for "([^"]*)" as "([^"]*)" signed with another key$`, s.iHoldAForeignToken)
	sc.Step(`^I hold no token$`, s.iHoldNoToken)
	sc.Step(`^the response should be unauthorized$`, s.theResponseShouldBeUnauthorized)
}

func sign(key []byte, email, role string, exp time.Time) (string, error) {
	claims := token.Claims{
		Email: email,
		Role:  identity.Role(role),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(exp.Add(-time.Hour)),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}

func (s *StepsContext) iHoldAnExpiredToken(email, role string, minutes int) error {
	signed, err := sign(s.tc.AppKey, email, role, time.Now().Add(-time.Duration(minutes)*time.Minute))
	if err != nil {
		return err
	}
	s.authToken = signed
	return nil
}

func (s *StepsContext) iHoldAForeignToken(email, role string) error {
	other := make([]byte, token.MinKeyLength)
	for i := range other {
		other[i] = 0xA5
	}
	signed, err := sign(other, email, role, time.Now().Add(time.Hour))
	if err != nil {
		return err
	}
	s.authToken = signed
	return nil
}

func (s *StepsContext) iHoldNoToken() error {
	s.authToken = ""
	return nil
}

func (s *StepsContext) theResponseShouldBeUnauthorized() error {
	if s.response.StatusCode != http.StatusUnauthorized {
		return fmt.Errorf("expected 401, got %d: %s", s.response.StatusCode, s.responseBody)
	}
	return nil
}
