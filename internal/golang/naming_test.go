package golang

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPascalCase(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"hello_world", "HelloWorld"},
		{"hello-world", "HelloWorld"},
		{"hello world", "HelloWorld"},
		{"helloWorld", "HelloWorld"},
		{"HelloWorld", "HelloWorld"},
		{"api_key", "APIKey"},
		{"user_id", "UserID"},
		{"http_url", "HTTPURL"},
		{"json_data", "JSONData"},
		{"uuid", "UUID"},
		{"get_pets_by_id", "GetPetsByID"},
		{"", ""},
		{"a", "A"},
		{"ABC", "Abc"},
		{"petId", "PetID"},
		{"user.show", "UserShow"},
		{"users/:id", "UsersID"},
		{"project_list (v2)", "ProjectListV2"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := PascalCase(tt.input)
			require.Equal(t, tt.expected, got)
		})
	}
}

func TestToGoIdentifier(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"hello_world", "HelloWorld"},
		{"123abc", "X123abc"},
		{"1", "X1"},
		{"", "X"},
		{"---", "X"},
		{"api_key", "APIKey"},
		{"user-name", "UserName"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ToGoIdentifier(tt.input)
			require.Equal(t, tt.expected, got)
		})
	}
}

func TestTestFuncName(t *testing.T) {
	require.Equal(t, "TestUserShowContract", TestFuncName("user_show"))
	require.Equal(t, "TestX2faSetupContract", TestFuncName("2fa-setup"))
}

func TestGoComment(t *testing.T) {
	require.Equal(t, "", GoComment(""))
	require.Equal(t, "// GET /users (user_list)", GoComment("GET /users (user_list)"))
	require.Equal(t, "// first\n// second", GoComment("first\n  second  "))
}
