// Package shared holds helpers used across esgcli packages. Its testutil
// subpackage provides log capture and input fixtures for tests.
package shared
