package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ryogrid/samehada-executor/common"
	testingpkg "github.com/ryogrid/samehada-executor/testing/testing_assert"
)

// resultLines drops the plan header lines of runner output
func resultLines(out string) []string {
	ret := make([]string, 0)
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if !strings.HasPrefix(line, "-- ") {
			ret = append(ret, line)
		}
	}
	return ret
}

func TestSampleScenario(t *testing.T) {
	sc, err := loadScenario("scenario.toml")
	testingpkg.Ok(t, err)

	out := new(bytes.Buffer)
	testingpkg.Ok(t, newScenarioRunner(common.DefaultConfig(), out).run(context.Background(), sc))

	expected := []string{
		"2 | INK | 50",
		"1 | PEN | 20",
		"3 | PAD | 0",
		"(3 rows, 0 processed)",
		"2 | ink | 30",
		"4 | cup | 45",
		"(2 rows, 2 processed)",
		"(0 rows, 1 processed)",
		"1 | pen | 10",
		"3 | pad | NULL",
		"(2 rows, 2 processed)",
		"5 | mug | 12",
		"2 | ink | 30",
		"(2 rows, 0 processed)",
	}
	testingpkg.Equals(t, expected, resultLines(out.String()))
}

func TestScenarioErrors(t *testing.T) {
	cases := []string{
		// unknown column type
		"[[relation]]\nname = \"t\"\ncolumns = [{ name = \"a\", type = \"blob\" }]\n",
		// value does not match column type
		"[[relation]]\nname = \"t\"\ncolumns = [{ name = \"a\", type = \"int\" }]\nrows = [[\"x\"]]\n",
		// unknown relation
		"[[query]]\nfrom = \"nothing\"\n",
		// unknown column in where
		"[[relation]]\nname = \"t\"\ncolumns = [{ name = \"a\", type = \"int\" }]\n[[query]]\nfrom = \"t\"\nwhere = \"b > 1\"\n",
		// division by zero at run time
		"[[relation]]\nname = \"t\"\ncolumns = [{ name = \"a\", type = \"int\" }]\nrows = [[0]]\n[[query]]\nfrom = \"t\"\nselect = \"1 / a\"\n",
	}
	for _, body := range cases {
		path := filepath.Join(t.TempDir(), "scenario.toml")
		testingpkg.Ok(t, os.WriteFile(path, []byte(body), 0o600))
		sc, err := loadScenario(path)
		testingpkg.Ok(t, err)
		err = newScenarioRunner(common.DefaultConfig(), new(bytes.Buffer)).run(context.Background(), sc)
		testingpkg.Assert(t, err != nil, "expected error for scenario:\n%s", body)
	}
}
