package cli

import (
	"errors"
	"strings"

	"chat-fe/internal/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type Options struct {
	Config string
}

func NewRootCmd() *cobra.Command {
	opts := &Options{}
	chatOpts := &chatOptions{}
	root := &cobra.Command{
		Use:          "chat-fe",
		Short:        "chat-fe - terminal chat front-end for LLM completion endpoints",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(opts.Config)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, chatOpts)
		},
	}

	root.PersistentFlags().StringVar(
		&opts.Config,
		"config",
		"",
		"config file (default: ./chat-fe.yaml)",
	)
	_ = viper.BindPFlag("config", root.PersistentFlags().Lookup("config"))
	root.Flags().BoolVar(&chatOpts.Plain, "plain", false, "line-based chat on stdin/stdout instead of the full-screen UI")

	root.AddCommand(newChatCmd())
	root.AddCommand(newAskCmd())
	root.AddCommand(newPingCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func initConfig(configFile string) error {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("chat-fe")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.config/chat-fe")
	}

	config.SetDefaults(viper.GetViper())
	viper.SetEnvPrefix("CHAT_FE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return err
	}
	return nil
}
