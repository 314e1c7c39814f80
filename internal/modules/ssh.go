// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package modules

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/jeranaias/replsh/internal/registry"
)

// =============================================================================
// SSH MODULE (LAZY)
// =============================================================================

// sshDialTimeout bounds connection establishment.
const sshDialTimeout = 10 * time.Second

var ErrNoSession = errors.New("no ssh session; run \"ssh connect\" first")

// sshState holds the single remote connection of the ssh module.
type sshState struct {
	mu      sync.Mutex
	client  *ssh.Client
	addr    string
	tunnels []net.Listener
}

var remote sshState

// DeclareSSHModule declares the ssh module lazily: its command names are
// completable immediately, but the module is instantiated only when a
// command actually runs.
func DeclareSSHModule(reg *registry.Registry) {
	reg.DeclareLazyModule(
		registry.ModuleDescriptor{
			Name:        "ssh",
			Alias:       "sh",
			Description: "Remote shell sessions",
		},
		[]string{"connect", "disconnect", "exec", "tunnel"},
		func() (registry.Module, error) {
			return sshModule(), nil
		},
	)
}

func sshModule() registry.Module {
	return registry.Module{
		Name:        "ssh",
		Alias:       "sh",
		Description: "Remote shell sessions",
		Commands: []registry.Command{
			{
				Name:        "connect",
				Description: "Open an SSH connection",
				Params: []registry.ParameterSpec{
					{Name: "host", LongFlag: "--host", ShortFlag: "-h", Description: "host or host:port", Required: true},
					{Name: "user", LongFlag: "--user", ShortFlag: "-u", Description: "login user", Required: true},
					{Name: "password", LongFlag: "--password", ShortFlag: "-w", Description: "login password", Required: true},
				},
				Run: remote.connect,
			},
			{
				Name:        "disconnect",
				Description: "Close the SSH connection and any tunnels",
				Run:         remote.disconnect,
			},
			{
				Name:        "exec",
				Description: "Run a command on the remote host",
				Params: []registry.ParameterSpec{
					{Name: "cmd", LongFlag: "--cmd", ShortFlag: "-c", Description: "command line to run", Required: true},
				},
				Run: remote.exec,
			},
			{
				Name:        "tunnel",
				Description: "Forward a local port to a remote address",
				Params: []registry.ParameterSpec{
					{Name: "local", LongFlag: "--local", ShortFlag: "-l", Description: "local listen address (e.g., 127.0.0.1:8080)", Required: true},
					{Name: "remote", LongFlag: "--remote", ShortFlag: "-r", Description: "remote target address", Required: true},
				},
				Run: remote.tunnel,
			},
		},
	}
}

func (s *sshState) connect(ctx *registry.Context, args registry.Args) error {
	host, _ := args.Flag("host")
	user, _ := args.Flag("user")
	password, _ := args.Flag("password")
	if host == "" || user == "" || password == "" {
		return errors.New("--host, --user and --password are required")
	}
	if _, _, err := net.SplitHostPort(host); err != nil {
		host = net.JoinHostPort(host, "22")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		return fmt.Errorf("already connected to %s", s.addr)
	}

	client, err := ssh.Dial("tcp", host, &ssh.ClientConfig{
		User:            user,
		Auth:            []ssh.AuthMethod{ssh.Password(password)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         sshDialTimeout,
	})
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", host, err)
	}

	s.client = client
	s.addr = host
	fmt.Fprintf(ctx.Out, "connected to %s as %s\n", host, user)
	return nil
}

func (s *sshState) disconnect(ctx *registry.Context, _ registry.Args) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return ErrNoSession
	}

	for _, l := range s.tunnels {
		l.Close()
	}
	s.tunnels = nil

	err := s.client.Close()
	s.client = nil
	s.addr = ""
	if err != nil {
		return fmt.Errorf("closing connection: %w", err)
	}
	fmt.Fprintln(ctx.Out, "disconnected")
	return nil
}

func (s *sshState) exec(ctx *registry.Context, args registry.Args) error {
	cmd, ok := args.Flag("cmd")
	if !ok || cmd == "" {
		return errors.New("--cmd is required")
	}

	s.mu.Lock()
	client := s.client
	s.mu.Unlock()
	if client == nil {
		return ErrNoSession
	}

	session, err := client.NewSession()
	if err != nil {
		return fmt.Errorf("opening session: %w", err)
	}
	defer session.Close()

	session.Stdout = ctx.Out
	session.Stderr = ctx.Out
	if err := session.Run(cmd); err != nil {
		return fmt.Errorf("remote command failed: %w", err)
	}
	return nil
}

func (s *sshState) tunnel(ctx *registry.Context, args registry.Args) error {
	local, _ := args.Flag("local")
	target, _ := args.Flag("remote")
	if local == "" || target == "" {
		return errors.New("--local and --remote are required")
	}

	s.mu.Lock()
	client := s.client
	s.mu.Unlock()
	if client == nil {
		return ErrNoSession
	}

	listener, err := net.Listen("tcp", local)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", local, err)
	}

	s.mu.Lock()
	s.tunnels = append(s.tunnels, listener)
	s.mu.Unlock()

	go serveTunnel(listener, client, target)
	fmt.Fprintf(ctx.Out, "forwarding %s -> %s\n", listener.Addr(), target)
	return nil
}

// serveTunnel accepts local connections and pipes each through the SSH
// connection to the remote target. It exits when the listener closes.
func serveTunnel(listener net.Listener, client *ssh.Client, target string) {
	for {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		go func(local net.Conn) {
			defer local.Close()
			remoteConn, err := client.Dial("tcp", target)
			if err != nil {
				log.Printf("ssh: tunnel dial %s: %v", target, err)
				return
			}
			defer remoteConn.Close()

			done := make(chan struct{})
			go func() {
				io.Copy(remoteConn, local)
				close(done)
			}()
			io.Copy(local, remoteConn)
			<-done
		}(conn)
	}
}
