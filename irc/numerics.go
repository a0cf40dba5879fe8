package irc

// numericReplies maps RFC2812 numeric reply codes to their names. Only
// codes without an entry keep their numeric form as the command name.
var numericReplies = map[string]string{
	"001": "RPL_WELCOME",
	"002": "RPL_YOURHOST",
	"003": "RPL_CREATED",
	"004": "RPL_MYINFO",
	"005": "RPL_ISUPPORT",
	"250": "RPL_STATSCONN",
	"251": "RPL_LUSERCLIENT",
	"252": "RPL_LUSEROP",
	"253": "RPL_LUSERUNKNOWN",
	"254": "RPL_LUSERCHANNELS",
	"255": "RPL_LUSERME",
	"265": "RPL_LOCALUSERS",
	"266": "RPL_GLOBALUSERS",
	"301": "RPL_AWAY",
	"305": "RPL_UNAWAY",
	"306": "RPL_NOWAWAY",
	"311": "RPL_WHOISUSER",
	"312": "RPL_WHOISSERVER",
	"313": "RPL_WHOISOPERATOR",
	"315": "RPL_ENDOFWHO",
	"317": "RPL_WHOISIDLE",
	"318": "RPL_ENDOFWHOIS",
	"319": "RPL_WHOISCHANNELS",
	"324": "RPL_CHANNELMODEIS",
	"328": "RPL_CHANNEL_URL",
	"329": "RPL_CREATIONTIME",
	"331": "RPL_NOTOPIC",
	"332": "RPL_TOPIC",
	"333": "RPL_TOPICWHOTIME",
	"352": "RPL_WHOREPLY",
	"353": "RPL_NAMREPLY",
	"366": "RPL_ENDOFNAMES",
	"372": "RPL_MOTD",
	"375": "RPL_MOTDSTART",
	"376": "RPL_ENDOFMOTD",
	"401": "ERR_NOSUCHNICK",
	"403": "ERR_NOSUCHCHANNEL",
	"404": "ERR_CANNOTSENDTOCHAN",
	"421": "ERR_UNKNOWNCOMMAND",
	"422": "ERR_NOMOTD",
	"432": "ERR_ERRONEUSNICKNAME",
	"433": "ERR_NICKNAMEINUSE",
	"441": "ERR_USERNOTINCHANNEL",
	"442": "ERR_NOTONCHANNEL",
	"443": "ERR_USERONCHANNEL",
	"471": "ERR_CHANNELISFULL",
	"473": "ERR_INVITEONLYCHAN",
	"474": "ERR_BANNEDFROMCHAN",
	"475": "ERR_BADCHANNELKEY",
	"482": "ERR_CHANOPRIVSNEEDED",
}

// CommandName resolves a wire command to its readable name: numeric
// replies recognised in RFC2812 get their reply name, everything else is
// returned unchanged.
func CommandName(command string) string {
	if name, ok := numericReplies[command]; ok {
		return name
	}
	return command
}
