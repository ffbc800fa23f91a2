package extract

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/Cstannahill/farm-framework/errors"
	"github.com/Cstannahill/farm-framework/schema"
)

// termGrace is how long a temporary backend gets to exit after SIGTERM
// before it is killed.
const termGrace = 3 * time.Second

// startupPollInterval is how often the health endpoint is probed while the
// temporary backend boots.
const startupPollInterval = 250 * time.Millisecond

// portPlaceholder in a backend command argument is replaced with the scratch
// port, e.g. ["uvicorn", "src.main:app", "--port", "{port}"].
const portPlaceholder = "{port}"

// fetchTemporary spawns the configured backend command on a scratch port,
// waits for it to become healthy, and fetches the schema. Binding to an
// ephemeral port keeps the temporary server from colliding with whatever
// occupies the configured one. The process is always torn down before
// returning, schema or not: SIGTERM first, SIGKILL after the grace window.
func (e *Extractor) fetchTemporary(ctx context.Context) (*schema.Document, error) {
	if len(e.cfg.BackendCommand) == 0 {
		return nil, errors.New("no backend command configured")
	}

	port, err := scratchPort()
	if err != nil {
		return nil, errors.Wrap(err, "allocating scratch port")
	}
	baseURL := fmt.Sprintf("http://127.0.0.1:%d", port)

	ctx, cancel := context.WithTimeout(ctx, e.cfg.StartupTimeout()+e.cfg.FetchTimeout())
	defer cancel()

	argv := expandPort(e.cfg.BackendCommand, port)
	cmd := exec.Command(argv[0], argv[1:]...)
	// The port also travels via env for servers configured that way.
	cmd.Env = append(os.Environ(), "FARM_BACKEND_PORT="+strconv.Itoa(port))
	// Own process group so teardown reaches any workers the server forks.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if err := cmd.Start(); err != nil {
		return nil, errors.Wrapf(errors.ErrProcessFailed, "starting %s: %v", argv[0], err)
	}
	defer e.teardown(cmd)

	e.log.Infow("Spawned temporary backend",
		"command", argv[0],
		"pid", cmd.Process.Pid,
		"port", port,
	)

	if err := e.awaitHealthy(ctx, baseURL); err != nil {
		return nil, err
	}
	return e.fetchSchema(ctx, baseURL)
}

// scratchPort reserves an ephemeral localhost port for the temporary
// backend.
func scratchPort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// expandPort substitutes the port placeholder in the backend argv.
func expandPort(argv []string, port int) []string {
	out := make([]string, len(argv))
	for i, arg := range argv {
		out[i] = strings.ReplaceAll(arg, portPlaceholder, strconv.Itoa(port))
	}
	return out
}

// awaitHealthy polls the health endpoint until it responds or the startup
// window closes. Without a health path a fixed fraction of the window is
// simply waited out.
func (e *Extractor) awaitHealthy(ctx context.Context, baseURL string) error {
	deadline := time.Now().Add(e.cfg.StartupTimeout())

	if e.cfg.HealthPath == "" {
		select {
		case <-time.After(e.cfg.StartupTimeout() / 2):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	var lastErr error
	for time.Now().Before(deadline) {
		if lastErr = e.probeHealth(ctx, baseURL); lastErr == nil {
			return nil
		}
		select {
		case <-time.After(startupPollInterval):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return errors.WithMessagef(errors.ErrTimeout,
		"backend not healthy within %s: %v", e.cfg.StartupTimeout(), lastErr)
}

// teardown stops the temporary backend's process group: SIGTERM, grace
// window, then SIGKILL.
func (e *Extractor) teardown(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	pgid := -cmd.Process.Pid

	syscall.Kill(pgid, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		cmd.Wait()
		close(done)
	}()

	select {
	case <-done:
		e.log.Debugw("Temporary backend exited", "pid", cmd.Process.Pid)
	case <-time.After(termGrace):
		e.log.Warnw("Temporary backend ignored SIGTERM, killing", "pid", cmd.Process.Pid)
		syscall.Kill(pgid, syscall.SIGKILL)
		<-done
	}
}
