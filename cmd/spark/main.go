package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"path"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/sparkdeploy/spark/client"
	"github.com/sparkdeploy/spark/discovery"
	"github.com/sparkdeploy/spark/lifecycle"
	"github.com/sparkdeploy/spark/log"
	"github.com/sparkdeploy/spark/protocol"
)

// AuthConfig is the saved forge credential file at ~/.spark/auth.toml.
type AuthConfig struct {
	User  string `toml:"user"`
	Pass  string `toml:"pass"`
	Forge string `toml:"forge"`
}

func usage() {
	fmt.Fprintf(os.Stderr, `usage: spark [flags] <command> [args]

commands:
  deploy -repo <owner/name>   deploy a repository to a daemon
  discover                    discover daemons in the local network
  start <app>                 start a deployed application
  stop <app>                  stop a deployed application
  restart <app>               restart a deployed application
  rollback <app>              roll back to the previous version

flags:
`)
	flag.PrintDefaults()
}

func main() {
	host := flag.String("host", "127.0.0.1", "target daemon host")
	port := flag.Int("port", client.DefaultPort, "target daemon port")
	forge := flag.String("forge", "", "forge server URL")
	user := flag.String("user", "", "forge username")
	pass := flag.String("pass", "", "forge password")
	github := flag.Bool("github", false, "use GitHub instead of a custom forge")
	repo := flag.String("repo", "", "repository to deploy (owner/name)")
	autoHealth := flag.Bool("auto-health", false, "auto-add health check if app doesn't have one")
	flag.Usage = usage
	flag.Parse()

	if err := log.InitLog(log.DefaultConfig); err != nil {
		panic(err)
	}
	client.SetLogger(log.LogAccess)

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	authUser, authPass, forgeURL := resolveAuth(*user, *pass, *forge, loadAuthConfig())
	if *github {
		forgeURL = "github"
	}

	var err error
	switch cmd := flag.Arg(0); cmd {
	case "deploy":
		if *repo == "" {
			fmt.Fprintln(os.Stderr, "deploy requires -repo")
			os.Exit(2)
		}
		var res protocol.Result
		res, err = client.Deploy(*host, *port, &protocol.DeployRequest{
			Repo:         *repo,
			Forge:        forgeURL,
			AuthUser:     authUser,
			AuthPassword: authPass,
			AutoHealth:   *autoHealth,
		})
		if err == nil && !res.OK {
			err = fmt.Errorf("deploy failed: %s", res.Message)
		}
	case "discover":
		var addr net.Addr
		addr, err = discovery.Discover(discovery.DefaultPort, 5*time.Second)
		if err == nil {
			fmt.Printf("found device at: %s\n", addr)
		}
	case "start":
		err = lifecycleCommand(cmd, lifecycle.Start)
	case "stop":
		err = lifecycleCommand(cmd, lifecycle.Stop)
	case "restart":
		err = lifecycleCommand(cmd, lifecycle.Restart)
	case "rollback":
		err = lifecycleCommand(cmd, lifecycle.Rollback)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		os.Exit(2)
	}

	if err != nil {
		log.LogError.Errorf("%v", err)
		os.Exit(1)
	}
}

func lifecycleCommand(name string, fn func(string) error) error {
	if flag.NArg() < 2 {
		return fmt.Errorf("%s requires an application name", name)
	}
	return fn(flag.Arg(1))
}

// resolveAuth picks forge credentials by precedence: explicit flags, then
// the saved auth file, then environment variables.
func resolveAuth(flagUser, flagPass, flagForge string, saved AuthConfig) (user, pass, forge string) {
	user = firstNonEmpty(flagUser, saved.User, os.Getenv("SPARK_USER"))
	pass = firstNonEmpty(flagPass, saved.Pass, os.Getenv("SPARK_PASS"))
	forge = firstNonEmpty(flagForge, saved.Forge, "http://localhost:8080")
	return user, pass, forge
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func authConfigPath() string {
	home := os.Getenv("HOME")
	if home == "" {
		home = "/tmp"
	}
	return path.Join(home, ".spark", "auth.toml")
}

func loadAuthConfig() AuthConfig {
	var auth AuthConfig
	data, err := os.ReadFile(authConfigPath())
	if err != nil {
		return auth
	}
	if err := toml.Unmarshal(data, &auth); err != nil {
		log.LogError.Errorf("parse auth config: %v", err)
	}
	return auth
}
