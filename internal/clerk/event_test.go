package clerk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeUserCreated(t *testing.T) {
	raw := []byte(`{
		"object": "event",
		"type": "user.created",
		"data": {
			"id": "u_1",
			"first_name": "Ada",
			"last_name": "Lovelace",
			"username": "ada",
			"email_addresses": [{"email_address": "ada@example.com"}],
			"created_at": 1654012591514
		}
	}`)

	ev, err := Decode(raw)
	require.NoError(t, err)

	up, ok := ev.(UserUpserted)
	require.True(t, ok, "got %T", ev)
	assert.Equal(t, TypeUserCreated, up.Type())
	assert.Equal(t, "u_1", up.User.ID)
	require.NotNil(t, up.User.FirstName)
	assert.Equal(t, "Ada", *up.User.FirstName)
	require.NotNil(t, up.User.LastName)
	assert.Equal(t, "Lovelace", *up.User.LastName)
	require.NotNil(t, up.User.Username)
	assert.Equal(t, "ada", *up.User.Username)
}

func TestDecodeUserUpdatedWithNullNames(t *testing.T) {
	ev, err := Decode([]byte(`{"type":"user.updated","data":{"id":"u_2","first_name":null,"last_name":null}}`))
	require.NoError(t, err)

	up := ev.(UserUpserted)
	assert.Equal(t, TypeUserUpdated, up.Type())
	assert.Nil(t, up.User.FirstName)
	assert.Nil(t, up.User.LastName)
	assert.Nil(t, up.User.Username)
}

func TestDecodeUserDeleted(t *testing.T) {
	ev, err := Decode([]byte(`{"type":"user.deleted","data":{"id":"u_3","object":"user","deleted":true}}`))
	require.NoError(t, err)

	del, ok := ev.(UserDeleted)
	require.True(t, ok)
	assert.Equal(t, "u_3", del.ID)
	assert.True(t, del.Deleted)
	assert.Equal(t, TypeUserDeleted, del.Type())
}

func TestDecodeUserDeletedIsLenient(t *testing.T) {
	cases := map[string]string{
		"without id":      `{"type":"user.deleted","data":{"deleted":true}}`,
		"null data":       `{"type":"user.deleted","data":null}`,
		"missing data":    `{"type":"user.deleted"}`,
		"data not object": `{"type":"user.deleted","data":"u_1"}`,
		"id not string":   `{"type":"user.deleted","data":{"id":5}}`,
		"blank id":        `{"type":"user.deleted","data":{"id":"  "}}`,
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			ev, err := Decode([]byte(raw))
			require.NoError(t, err)
			del, ok := ev.(UserDeleted)
			require.True(t, ok)
			assert.Empty(t, del.ID)
		})
	}
}

func TestDecodeTrimsUserID(t *testing.T) {
	ev, err := Decode([]byte(`{"type":"user.updated","data":{"id":" u_1 "}}`))
	require.NoError(t, err)
	assert.Equal(t, "u_1", ev.(UserUpserted).User.ID)
}

func TestDecodeUnhandled(t *testing.T) {
	ev, err := Decode([]byte(`{"type":"session.created","data":{"id":"sess_1"}}`))
	require.NoError(t, err)
	assert.Equal(t, Unhandled{Kind: "session.created"}, ev)

	// data is irrelevant for unhandled types
	ev, err = Decode([]byte(`{"type":"email.created"}`))
	require.NoError(t, err)
	assert.Equal(t, "email.created", ev.Type())
}

func TestDecodeMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":           `this is not json`,
		"array":              `[1,2,3]`,
		"missing type":       `{"data":{"id":"u_1"}}`,
		"type not string":    `{"type":42,"data":{"id":"u_1"}}`,
		"missing data":       `{"type":"user.created"}`,
		"null data":          `{"type":"user.updated","data":null}`,
		"data not object":    `{"type":"user.created","data":"u_1"}`,
		"missing id":         `{"type":"user.created","data":{"first_name":"Ada"}}`,
		"empty id":           `{"type":"user.updated","data":{"id":""}}`,
		"first_name numeric": `{"type":"user.created","data":{"id":"u_1","first_name":7}}`,
		"blank id":           `{"type":"user.created","data":{"id":"   "}}`,
		"truncated":          `{"type":"user.created","data":{"id":"u_1"`,
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(raw))
			assert.ErrorIs(t, err, ErrMalformedEvent)
		})
	}
}
