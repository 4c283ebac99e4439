/*
 * Cherry - An OpenFlow Controller
 *
 * Copyright (C) 2015 Samjung Data Service, Inc. All rights reserved.
 * Kitae Kim <superkkt@sds.co.kr>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation; either version 2 of the License, or
 * any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License along
 * with this program; if not, write to the Free Software Foundation, Inc.,
 * 51 Franklin Street, Fifth Floor, Boston, MA 02110-1301 USA.
 */

package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/moonfalir/containernet/api"
	"github.com/moonfalir/containernet/events"
	"github.com/moonfalir/containernet/log"
	"github.com/moonfalir/containernet/network"

	"github.com/davecgh/go-spew/spew"
	"github.com/fsnotify/fsnotify"
	"github.com/op/go-logging"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	programName    = "droplist"
	programVersion = "0.1.0"
	// Time allowed for the sessions to wind down after SIGTERM.
	shutdownTimeout = 5 * time.Second
)

var (
	logger     = logging.MustGetLogger("main")
	configFile string
)

var rootCmd = &cobra.Command{
	Use:   programName,
	Short: "OpenFlow 1.0 learning switch controller that drops chosen client and server packets",
	Long: `droplist is an OpenFlow 1.0 controller for emulated networks. Every switch
that connects behaves as a MAC learning switch, except that the Nth TCP or UDP
packet sent by the client or the server address is dropped when N is on the
corresponding droplist.

Examples:
  droplist --droplist-client 2,5                 # drop the 2nd and 5th client packets
  droplist -c droplist.yaml --hold-down 5        # no flooding during the first 5 seconds
  droplist --ignore 00-00-00-00-00-03            # leave switch 3 alone
`,
	Version:       programVersion,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVarP(&configFile, "config", "c", fmt.Sprintf("/usr/local/etc/%v.yaml", programName), "absolute path of the configuration file")
	flags.Bool("transparent", false, "forward LLDP and 802.1D bridge-filtered frames like any other traffic")
	flags.String("hold-down", "0", "seconds after a switch connects during which flooding is withheld")
	flags.String("ignore", "", "comma separated DPIDs of the switches to leave alone")
	flags.String("droplist-client", "", "comma separated numbers of the client packets to drop")
	flags.String("droplist-server", "", "comma separated numbers of the server packets to drop")
	flags.Int("port", 6633, "OpenFlow listen port")
}

func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	bindings := map[string]string{
		"transparent":     keyTransparent,
		"hold-down":       keyHoldDown,
		"ignore":          keyIgnore,
		"droplist-client": keyClient,
		"droplist-server": keyServer,
		"port":            keyPort,
	}
	for flag, key := range bindings {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return errors.Wrap(err, fmt.Sprintf("binding --%v", flag))
		}
	}

	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	v := viper.New()
	setDefaults(v)
	if err := bindFlags(cmd, v); err != nil {
		return err
	}
	found, err := readConfig(v, configFile, cmd.Flags().Changed("config"))
	if err != nil {
		return err
	}
	conf, err := loadConfig(v)
	if err != nil {
		return errors.Wrap(err, "invalid configuration")
	}

	leveled, err := log.Init(programName, conf.log)
	if err != nil {
		return errors.Wrap(err, "failed to init log")
	}
	if found {
		watchConfig(v, leveled)
	} else {
		logger.Infof("no config file at %v: using the defaults and flags", configFile)
	}
	logger.Debugf("configuration: %v", spew.Sdump(v.AllSettings()))

	publisher, err := initPublisher(conf)
	if err != nil {
		return err
	}
	defer publisher.Close()
	conf.network.Publisher = publisher

	controller, err := network.NewController(conf.network)
	if err != nil {
		return err
	}
	logger.Infof("droplist client=%v (%v), server=%v (%v), hold-down=%v, transparent=%v",
		conf.network.Droplist.ClientDroplist, conf.network.Droplist.ClientIP,
		conf.network.Droplist.ServerDroplist, conf.network.Droplist.ServerIP,
		conf.network.Droplist.HoldDown, conf.network.Droplist.Transparent)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	initAPIServer(ctx, conf, controller)
	initSignalHandler(controller, cancel)

	return listen(ctx, conf.port, controller)
}

// watchConfig re-reads the log level whenever the config file changes.
// The other settings only apply to switches at connect time and are not
// reloaded.
func watchConfig(v *viper.Viper, leveled logging.LeveledBackend) {
	v.OnConfigChange(func(e fsnotify.Event) {
		// Ignore the other operations to avoid reading an empty config.
		if e.Op&fsnotify.Write == 0 {
			return
		}

		level, ok := log.ParseLevel(v.GetString(keyLogLevel))
		if !ok {
			logger.Warningf("invalid log level=%v, defaulting to %v..", v.GetString(keyLogLevel), level)
		}
		// Set log level for all modules
		leveled.SetLevel(level, "")
		logger.Infof("log level is changed to %v", level)
	})
	v.WatchConfig()
}

func initPublisher(conf *config) (events.Publisher, error) {
	if conf.nats.url == "" {
		return events.Discard{}, nil
	}

	p, err := events.NewNATS(conf.nats.url, conf.nats.subject)
	if err != nil {
		return nil, errors.Wrap(err, "failed to init the drop event publisher")
	}
	logger.Infof("publishing drop events to %v on %v", conf.nats.url, conf.nats.subject)

	return p, nil
}

func initAPIServer(ctx context.Context, conf *config, controller *network.Controller) {
	if conf.rest.port == 0 {
		logger.Info("REST API is disabled")
		return
	}

	go func() {
		srv := &api.Server{Port: conf.rest.port, Controller: controller}
		srv.TLS.Cert = conf.rest.cert
		srv.TLS.Key = conf.rest.key
		if err := srv.Serve(ctx); err != nil {
			logger.Fatalf("failed to run the API server: %v", err)
		}
	}()
}

func initSignalHandler(controller *network.Controller, cancel context.CancelFunc) {
	go func() {
		c := make(chan os.Signal, 5)
		signal.Notify(c, syscall.SIGTERM, syscall.SIGINT, syscall.SIGHUP)

		// Infinte loop.
		for s := range c {
			switch s {
			case syscall.SIGTERM, syscall.SIGINT:
				// Graceful shutdown
				logger.Warning("Shutting down...")
				cancel()
				// Timeout for cancelation
				time.Sleep(shutdownTimeout)
				os.Exit(0)
			case syscall.SIGHUP:
				fmt.Println("* Controller status:")
				fmt.Println(controller.String())
				fmt.Println("* Closed sessions:")
				fmt.Println(spew.Sdump(controller.History()))
			}
		}
	}()
}

func listen(ctx context.Context, port int, controller *network.Controller) error {
	type KeepAliver interface {
		SetKeepAlive(keepalive bool) error
		SetKeepAlivePeriod(d time.Duration) error
	}

	listener, err := net.Listen("tcp", fmt.Sprintf(":%v", port))
	if err != nil {
		return errors.Wrap(err, fmt.Sprintf("failed to listen on %v port", port))
	}
	logger.Infof("listening for OpenFlow switches on port %v", port)
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				logger.Debug("terminating the main listener loop...")
				return nil
			default:
			}
			logger.Errorf("failed to accept a new connection: %v", err)
			time.Sleep(100 * time.Millisecond)
			continue
		}

		if v, ok := conn.(KeepAliver); ok {
			if err := v.SetKeepAlive(true); err == nil {
				// Makes a broken connection will be disconnected within 45 seconds.
				v.SetKeepAlivePeriod(time.Duration(5) * time.Second)
			} else {
				logger.Errorf("failed to enable socket keepalive: %v", err)
			}
		}
		controller.AddConnection(ctx, conn)
	}
}
