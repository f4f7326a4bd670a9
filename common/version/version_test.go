package version

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVersionToString(t *testing.T) {
	savedVersion, savedCommit := VERSION, GITCOMMIT
	t.Cleanup(func() { VERSION, GITCOMMIT = savedVersion, savedCommit })

	VERSION, GITCOMMIT = "", ""
	require.Equal(t, "dev", VersionToString())
	VERSION = "1.2.0"
	require.Equal(t, "1.2.0", VersionToString())
	GITCOMMIT = "0123456789ab"
	require.Equal(t, "1.2.0 - 0123456789ab", VersionToString())
}
