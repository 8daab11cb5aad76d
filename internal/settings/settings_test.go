package settings

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSettings_ReadDotenv(t *testing.T) {
	t.Run("success - .env files is read into env variables", func(t *testing.T) {
		// arrange
		testDotEnvFile := ".env.test"
		f, err := os.Create(testDotEnvFile)
		if err != nil {
			t.Error(err)
		}
		lines := []string{
			`#COMMENTED=asdf`,
			`SHIPYARD_TEST=1234`,
			``,
			`SHIPYARD_TEST2= 2345 `,
		}
		for _, line := range lines {
			f.Write([]byte(line + "\n"))
		}
		f.Close()
		defer os.Remove(testDotEnvFile)

		// act
		ReadDotenv(testDotEnvFile)

		// assert
		assert.Equal(t, os.Getenv("SHIPYARD_TEST"), "1234")
		assert.Equal(t, os.Getenv("SHIPYARD_TEST2"), "2345")
	})
}

func TestSettings_SQLiteDbString(t *testing.T) {
	t.Run("success - readonly connection string has ro mode", func(t *testing.T) {
		// arrange
		as := &AppSettings{SQLiteDatabase: "file:.///db.sqlite"}

		// act
		s := as.SQLiteDbString(true)

		// assert
		assert.Contains(t, s, "mode=ro")
		assert.Contains(t, s, "_journal_mode=WAL")
	})
	t.Run("success - read-write connection string has rwc mode", func(t *testing.T) {
		// arrange
		as := &AppSettings{SQLiteDatabase: "file:.///db.sqlite"}

		// act
		s := as.SQLiteDbString(false)

		// assert
		assert.Contains(t, s, "mode=rwc")
		assert.Contains(t, s, "_txlock=IMMEDIATE")
	})
}
