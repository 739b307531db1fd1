package legal

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateInputValidate(t *testing.T) {
	in := CreateInput{Type: " Terms_Clients ", Language: "FR", Title: " CGU ", Content: "..."}
	in.Trim()
	require.NoError(t, in.Validate())
	require.Equal(t, "terms_clients", in.Type)
	require.Equal(t, "fr", in.Language)
	require.Equal(t, "CGU", in.Title)

	bad := []CreateInput{
		{Type: "terms", Language: "fr", Title: "x"},
		{Type: TypeCookies, Language: "fra", Title: "x"},
		{Type: TypeCookies, Language: "f1", Title: "x"},
		{Type: TypeCookies, Language: "fr", Title: ""},
		{Type: TypeCookies, Language: "fr", Title: strings.Repeat("a", maxTitle+1)},
	}
	for _, b := range bad {
		require.True(t, IsErrBadRequest(b.Validate()), "%+v", b)
	}
}

func TestUpdateInputUpdates(t *testing.T) {
	title := " New title "
	version := "2.0"
	in := UpdateInput{Title: &title, Version: &version}
	in.Trim()
	u, err := in.Updates()
	require.NoError(t, err)
	require.Equal(t, map[string]interface{}{"title": "New title", "version": "2.0"}, u)

	_, err = UpdateInput{}.Updates()
	require.True(t, IsErrBadRequest(err))

	empty := "  "
	in = UpdateInput{Title: &empty}
	in.Trim()
	_, err = in.Updates()
	require.True(t, IsErrBadRequest(err))
}

func TestLanguageCandidates(t *testing.T) {
	require.Equal(t, []string{"fr", "en"}, LanguageCandidates("fr"))
	require.Equal(t, []string{"fr", "en"}, LanguageCandidates("fr-FR"))
	require.Equal(t, []string{"pt", "en"}, LanguageCandidates("PT_br"))
	require.Equal(t, []string{"en"}, LanguageCandidates("en"))
	require.Equal(t, []string{"en"}, LanguageCandidates(""))
	require.Equal(t, []string{"en"}, LanguageCandidates("???"))
}
