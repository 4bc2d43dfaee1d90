package authoring_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/reposync/internal/authoring"
)

const (
	testParseRoundTripCaseNameConstant  = "round_trip"
	testParseEmptyEmailCaseNameConstant = "empty_email_brackets"
	testParseMalformedCaseNameConstant  = "malformed_label"
	testMalformedAuthorLabelConstant    = "foo-bar"
	testExpectedShapeFragmentConstant   = "name <mail@example.com>"
)

func TestParseAuthorRoundTrip(testInstance *testing.T) {
	testInstance.Run(testParseRoundTripCaseNameConstant, func(testInstance *testing.T) {
		parsedAuthor, parseError := authoring.ParseAuthor("Foo Bar <foo@bar.com>")
		require.NoError(testInstance, parseError)
		require.Equal(testInstance, "Foo Bar", parsedAuthor.Name())
		require.Equal(testInstance, "foo@bar.com", parsedAuthor.Email())
		require.Equal(testInstance, "Foo Bar <foo@bar.com>", parsedAuthor.String())
	})
}

func TestAuthorEmptyEmailLabel(testInstance *testing.T) {
	testInstance.Run(testParseEmptyEmailCaseNameConstant, func(testInstance *testing.T) {
		constructedAuthor, constructionError := authoring.NewAuthor("Foo Bar", "")
		require.NoError(testInstance, constructionError)
		require.Equal(testInstance, "Foo Bar <>", constructedAuthor.String())
	})
}

func TestParseAuthorMalformedLabel(testInstance *testing.T) {
	testInstance.Run(testParseMalformedCaseNameConstant, func(testInstance *testing.T) {
		_, parseError := authoring.ParseAuthor(testMalformedAuthorLabelConstant)
		require.Error(testInstance, parseError)
		require.Contains(testInstance, parseError.Error(), testMalformedAuthorLabelConstant)
		require.Contains(testInstance, parseError.Error(), testExpectedShapeFragmentConstant)
	})
}

func TestNewAuthorValidation(testInstance *testing.T) {
	testCases := []struct {
		name             string
		contributorName  string
		contributorEmail string
		expectError      bool
		offendingValue   string
	}{
		{name: "missing_name", contributorName: "  ", contributorEmail: "a@b.com", expectError: true},
		{name: "bad_email_shape", contributorName: "Foo", contributorEmail: "not-an-email", expectError: true, offendingValue: "not-an-email"},
		{name: "valid_author", contributorName: "Foo", contributorEmail: "foo@example.com"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			_, constructionError := authoring.NewAuthor(testCase.contributorName, testCase.contributorEmail)
			if testCase.expectError {
				require.Error(testInstance, constructionError)
				if len(testCase.offendingValue) > 0 {
					require.Contains(testInstance, constructionError.Error(), testCase.offendingValue)
				}
				return
			}
			require.NoError(testInstance, constructionError)
		})
	}
}

func TestAuthorValueEquality(testInstance *testing.T) {
	firstAuthor, firstError := authoring.NewAuthor("Foo Bar", "foo@bar.com")
	require.NoError(testInstance, firstError)
	secondAuthor, secondError := authoring.ParseAuthor("Foo Bar <foo@bar.com>")
	require.NoError(testInstance, secondError)
	require.Equal(testInstance, firstAuthor, secondAuthor)
}

func TestPolicyResolution(testInstance *testing.T) {
	defaultAuthor, defaultError := authoring.NewAuthor("Migration Bot", "bot@example.com")
	require.NoError(testInstance, defaultError)
	originAuthor, originError := authoring.NewAuthor("Origin Dev", "dev@example.com")
	require.NoError(testInstance, originError)

	testCases := []struct {
		name           string
		resolutionMode authoring.ResolutionMode
		allowedEmails  []string
		expectedAuthor authoring.Author
	}{
		{name: "pass_thru_keeps_origin", resolutionMode: authoring.ResolutionPassThru, expectedAuthor: originAuthor},
		{name: "use_default_overrides", resolutionMode: authoring.ResolutionUseDefault, expectedAuthor: defaultAuthor},
		{name: "allowed_keeps_listed", resolutionMode: authoring.ResolutionAllowed, allowedEmails: []string{"dev@example.com"}, expectedAuthor: originAuthor},
		{name: "allowed_replaces_unlisted", resolutionMode: authoring.ResolutionAllowed, allowedEmails: []string{"other@example.com"}, expectedAuthor: defaultAuthor},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			policy, policyError := authoring.NewPolicy(defaultAuthor, testCase.resolutionMode, testCase.allowedEmails)
			require.NoError(testInstance, policyError)
			require.Equal(testInstance, testCase.expectedAuthor, policy.Resolve(originAuthor))
		})
	}
}
