//go:build e2e

package e2e

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cucumber/godog"
)

// RegisterSteps registers all step definitions.
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	ctx.Step(`^the registry is running$`, tc.registryIsRunning)

	// Session steps
	ctx.Step(`^I am logged in as the administrator$`, tc.loginAsAdmin)
	ctx.Step(`^I log in as "([^"]*)" with password "([^"]*)"$`, tc.loginAs)
	ctx.Step(`^I drop my access token$`, tc.dropToken)
	ctx.Step(`^I keep the access token from the response$`, tc.keepToken)

	// Request steps
	ctx.Step(`^I (GET|DELETE|POST|PATCH) "([^"]*)"$`, tc.requestWithoutBody)
	ctx.Step(`^I (POST|PUT|PATCH) "([^"]*)" with:$`, tc.requestWithBody)
	ctx.Step(`^I save the response field "([^"]*)" as "([^"]*)"$`, tc.saveField)

	// Assertion steps
	ctx.Step(`^the response status should be (\d+)$`, tc.responseStatusShouldBe)
	ctx.Step(`^the response field "([^"]*)" should equal "([^"]*)"$`, tc.responseFieldShouldEqual)
	ctx.Step(`^the response should contain "([^"]*)"$`, tc.responseShouldContain)
}

func (tc *TestContext) registryIsRunning(context.Context) error {
	if err := tc.Do("GET", "/health/live", ""); err != nil {
		return err
	}
	if tc.LastStatus() != 200 {
		return fmt.Errorf("health check answered %d", tc.LastStatus())
	}
	return nil
}

func (tc *TestContext) loginAsAdmin(ctx context.Context) error {
	if tc.AdminUser == "" || tc.AdminPassword == "" {
		return errors.New("set E2E_ADMIN_USER and E2E_ADMIN_PASSWORD")
	}
	if err := tc.loginAs(ctx, tc.AdminUser, tc.AdminPassword); err != nil {
		return err
	}
	if tc.LastStatus() != 200 {
		return fmt.Errorf("admin login answered %d: %s", tc.LastStatus(), tc.LastResponseBody)
	}
	return tc.keepToken(ctx)
}

func (tc *TestContext) loginAs(_ context.Context, username, password string) error {
	tc.AccessToken = ""
	body := fmt.Sprintf(`{"username":%q,"password":%q}`, tc.expand(username), password)
	return tc.Do("POST", "/api/auth/login", body)
}

func (tc *TestContext) dropToken(context.Context) error {
	tc.AccessToken = ""
	return nil
}

func (tc *TestContext) keepToken(context.Context) error {
	v, err := tc.ResponseField("access_token")
	if err != nil {
		return err
	}
	token, ok := v.(string)
	if !ok || token == "" {
		return errors.New("access_token is not a string")
	}
	tc.AccessToken = token
	return nil
}

func (tc *TestContext) requestWithoutBody(_ context.Context, method, path string) error {
	return tc.Do(method, path, "")
}

func (tc *TestContext) requestWithBody(_ context.Context, method, path string, body *godog.DocString) error {
	return tc.Do(method, path, body.Content)
}

func (tc *TestContext) saveField(_ context.Context, field, name string) error {
	v, err := tc.ResponseField(field)
	if err != nil {
		return err
	}
	tc.Saved[name] = fmt.Sprint(v)
	return nil
}

func (tc *TestContext) responseStatusShouldBe(_ context.Context, expected int) error {
	if tc.LastStatus() != expected {
		return fmt.Errorf("expected status %d but got %d: %s", expected, tc.LastStatus(), tc.LastResponseBody)
	}
	return nil
}

func (tc *TestContext) responseFieldShouldEqual(_ context.Context, field, expected string) error {
	v, err := tc.ResponseField(field)
	if err != nil {
		return err
	}
	if got := fmt.Sprint(v); got != tc.expand(expected) {
		return fmt.Errorf("field %s: expected %s but got %s", field, tc.expand(expected), got)
	}
	return nil
}

func (tc *TestContext) responseShouldContain(_ context.Context, text string) error {
	if !strings.Contains(string(tc.LastResponseBody), tc.expand(text)) {
		return fmt.Errorf("response does not contain %q\nResponse: %s", text, tc.LastResponseBody)
	}
	return nil
}
