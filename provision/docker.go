package provision

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strconv"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	"github.com/jmoiron/sqlx"

	"github.com/sparkdeploy/spark/app"
	"github.com/sparkdeploy/spark/log"

	_ "github.com/go-sql-driver/mysql"
)

// container images and settle times
const (
	postgresImage  = "postgres:14-alpine"
	postgresSettle = 5 * time.Second
	mysqlImage     = "mysql:8.0"
	mysqlSettle    = 10 * time.Second
)

func dockerClient() (*client.Client, error) {
	return client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
}

// replaceContainer removes any same-named container and starts a fresh one
// publishing containerPort on hostPort.
func replaceContainer(ctx context.Context, cli *client.Client, name, img string, env []string, containerPort string, hostPort int) error {
	// stop+remove leftovers from a previous deploy, errors ignored
	timeout := 10
	_ = cli.ContainerStop(ctx, name, container.StopOptions{Timeout: &timeout})
	_ = cli.ContainerRemove(ctx, name, container.RemoveOptions{Force: true})

	rc, err := cli.ImagePull(ctx, img, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("pull %s: %w", img, err)
	}
	_, _ = io.Copy(io.Discard, rc)
	rc.Close()

	port := nat.Port(containerPort + "/tcp")
	resp, err := cli.ContainerCreate(ctx,
		&container.Config{
			Image:        img,
			Env:          env,
			ExposedPorts: nat.PortSet{port: struct{}{}},
		},
		&container.HostConfig{
			PortBindings: nat.PortMap{
				port: []nat.PortBinding{{HostIP: "0.0.0.0", HostPort: strconv.Itoa(hostPort)}},
			},
		},
		nil, nil, name)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}

	if err := cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return fmt.Errorf("start %s: %w", name, err)
	}
	return nil
}

// execWithStdin runs cmd inside the container streaming stdin into it.
func execWithStdin(ctx context.Context, cli *client.Client, name string, cmd []string, stdin io.Reader) error {
	exec, err := cli.ContainerExecCreate(ctx, name, container.ExecOptions{
		Cmd:          cmd,
		AttachStdin:  true,
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return err
	}

	attach, err := cli.ContainerExecAttach(ctx, exec.ID, container.ExecAttachOptions{})
	if err != nil {
		return err
	}
	defer attach.Close()

	if _, err := io.Copy(attach.Conn, stdin); err != nil {
		return err
	}
	if err := attach.CloseWrite(); err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, attach.Reader)

	inspect, err := cli.ContainerExecInspect(ctx, exec.ID)
	if err != nil {
		return err
	}
	if inspect.ExitCode != 0 {
		// preseed scripts may carry harmless warnings
		log.LogAccess.Infof("preseed exited with code %d", inspect.ExitCode)
	}
	return nil
}

func setupPostgres(ctx context.Context, db *app.DatabaseSection, appDir string) error {
	log.LogAccess.Info("setting up PostgreSQL database")

	name := defaultString(db.Name, "postgres")
	user := defaultString(db.User, "postgres")
	password := defaultString(db.Password, "password")
	port := defaultInt(db.Port, 5432)

	cli, err := dockerClient()
	if err != nil {
		return err
	}
	defer cli.Close()

	containerName := ContainerName(name)
	env := []string{
		"POSTGRES_DB=" + name,
		"POSTGRES_USER=" + user,
		"POSTGRES_PASSWORD=" + password,
	}
	if err := replaceContainer(ctx, cli, containerName, postgresImage, env, "5432", port); err != nil {
		return err
	}

	// fixed settle before the instance accepts connections
	time.Sleep(postgresSettle)

	if db.Preseed != "" {
		sqlPath := path.Join(appDir, db.Preseed)
		f, err := os.Open(sqlPath)
		if err != nil {
			if os.IsNotExist(err) {
				log.LogAccess.Infof("preseed file %s not found, skipping", db.Preseed)
				return finishPostgres(port)
			}
			return err
		}
		defer f.Close()

		err = execWithStdin(ctx, cli, containerName, []string{"psql", "-U", user, "-d", name}, f)
		if err != nil {
			return fmt.Errorf("preseed: %w", err)
		}
	}

	return finishPostgres(port)
}

func finishPostgres(port int) error {
	log.LogAccess.Infof("PostgreSQL database ready on port %d", port)
	return nil
}

func setupMySQL(ctx context.Context, db *app.DatabaseSection, appDir string) error {
	log.LogAccess.Info("setting up MySQL database")

	name := defaultString(db.Name, "mysql")
	user := defaultString(db.User, "root")
	password := defaultString(db.Password, "password")
	port := defaultInt(db.Port, 3306)

	cli, err := dockerClient()
	if err != nil {
		return err
	}
	defer cli.Close()

	containerName := ContainerName(name)
	env := []string{
		"MYSQL_DATABASE=" + name,
		"MYSQL_USER=" + user,
		"MYSQL_PASSWORD=" + password,
		"MYSQL_ROOT_PASSWORD=" + password,
	}
	if err := replaceContainer(ctx, cli, containerName, mysqlImage, env, "3306", port); err != nil {
		return err
	}

	time.Sleep(mysqlSettle)

	if db.Preseed != "" {
		if err := preseedMySQL(db, appDir, user, password, name, port); err != nil {
			return fmt.Errorf("preseed: %w", err)
		}
	}

	log.LogAccess.Infof("MySQL database ready on port %d", port)
	return nil
}

// preseedMySQL streams the preseed script through a direct client
// connection to the freshly published port.
func preseedMySQL(db *app.DatabaseSection, appDir, user, password, name string, port int) error {
	sqlPath := path.Join(appDir, db.Preseed)
	script, err := os.ReadFile(sqlPath)
	if err != nil {
		if os.IsNotExist(err) {
			log.LogAccess.Infof("preseed file %s not found, skipping", db.Preseed)
			return nil
		}
		return err
	}

	dsn := fmt.Sprintf("%s:%s@tcp(127.0.0.1:%d)/%s?charset=utf8mb4,utf8&multiStatements=true",
		user, password, port, name)
	conn, err := sqlx.Open("mysql", dsn)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := conn.Ping(); err != nil {
		return err
	}
	_, err = conn.Exec(string(script))
	return err
}

func defaultString(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func defaultInt(n, def int) int {
	if n == 0 {
		return def
	}
	return n
}
